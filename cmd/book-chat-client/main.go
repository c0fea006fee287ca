package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

type chatRequest struct {
	Message        string `json:"message"`
	SessionID      string `json:"sessionId,omitempty"`
	IncludeHistory bool   `json:"includeHistory"`
}

type streamRecord struct {
	Content   string `json:"content"`
	Done      bool   `json:"done"`
	SessionID string `json:"sessionId"`
	Error     string `json:"error"`
	Metadata  *struct {
		Model          string `json:"model"`
		ResponseLength int    `json:"responseLength"`
	} `json:"metadata"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "book-chat server base URL")
	noHistory := flag.Bool("no-history", false, "send each message without conversation history")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Println(boldGreen("Book Chat"))
	fmt.Println("Type your question and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		fmt.Print(boldCyan("Assistant: "))
		newSession, err := streamChat(ctx, *baseURL, chatRequest{
			Message:        input,
			SessionID:      sessionID,
			IncludeHistory: !*noHistory,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, red("\nError: "+err.Error()))
			continue
		}
		if newSession != "" {
			sessionID = newSession
		}
		fmt.Println()
	}
}

// streamChat posts one message and prints tokens as they arrive, returning
// the session id reported by the terminal record.
func streamChat(ctx context.Context, baseURL string, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			return "", fmt.Errorf("server: %s", envelope.Error)
		}
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var sessionID string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record streamRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return sessionID, fmt.Errorf("decode stream record: %w", err)
		}
		if record.Error != "" {
			return sessionID, fmt.Errorf("stream failed: %s", record.Error)
		}
		fmt.Print(record.Content)
		if record.Done {
			return record.SessionID, nil
		}
	}
	return sessionID, scanner.Err()
}
