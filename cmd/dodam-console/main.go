package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"dodam/internal/domain"
	"dodam/internal/tui"
)

// apiPort calls the running dodam API instead of assembling the
// pipeline in-process, so the console needs no model keys or database.
type apiPort struct {
	baseURL string
	client  *http.Client
}

func (p *apiPort) Advise(ctx context.Context, category, section, userText string) (domain.Advice, error) {
	body, _ := json.Marshal(map[string]any{
		"category":  category,
		"section":   section,
		"user_text": userText,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/v1/advice", bytes.NewReader(body))
	if err != nil {
		return domain.Advice{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Advice{}, fmt.Errorf("advice request: %w", err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Advice domain.Advice `json:"advice"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.Advice{}, fmt.Errorf("decode advice response: %w", err)
	}
	if !env.Success {
		if env.Message == "" {
			env.Message = resp.Status
		}
		return domain.Advice{}, fmt.Errorf("api: %s", env.Message)
	}
	return env.Data.Advice, nil
}

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("DODAM_API_URL", "http://localhost:8000"), "dodam API base URL")
	flag.Parse()

	port := &apiPort{
		baseURL: strings.TrimRight(*apiURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}

	p := tea.NewProgram(tui.New(port), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
