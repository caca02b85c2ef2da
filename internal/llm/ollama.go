package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mbrennan/marginalia/internal/logger"
)

const defaultTimeout = 2 * time.Minute

// OllamaClient drives a local Ollama server over its HTTP API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client

	pulling atomic.Bool
}

// NewOllama returns a client for the given server and model. A zero
// timeout selects the default.
func NewOllama(baseURL, model string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewOllamaFromEnv builds a client from MARGINALIA_OLLAMA_URL and
// MARGINALIA_OLLAMA_MODEL, with local defaults.
func NewOllamaFromEnv() *OllamaClient {
	url := os.Getenv("MARGINALIA_OLLAMA_URL")
	if url == "" {
		url = "http://localhost:11434"
	}
	model := os.Getenv("MARGINALIA_OLLAMA_MODEL")
	if model == "" {
		model = "llama3.2"
	}
	return NewOllama(url, model, 0)
}

func (c *OllamaClient) Model() string {
	return c.model
}

// Availability probes the server. Unreachable means unavailable; a listed
// model is available; a pull started by this process and not yet listed
// reports downloading; otherwise the model is downloadable.
func (c *OllamaClient) Availability(ctx context.Context) Availability {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return Unavailable
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Unavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Unavailable
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tags); err != nil {
		return Unavailable
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return Available
		}
	}
	if c.pulling.Load() {
		return Downloading
	}
	return Downloadable
}

// Pull asks the server to download the model. It runs synchronously and
// flips the availability to downloading for its duration.
func (c *OllamaClient) Pull(ctx context.Context) error {
	if !c.pulling.CompareAndSwap(false, true) {
		return fmt.Errorf("pull of %s already in flight", c.model)
	}
	defer c.pulling.Store(false)

	body, err := json.Marshal(map[string]any{"model": c.model, "stream": false})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama pull: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama pull status %d: %s", resp.StatusCode, string(data))
	}
	logger.L().Infow("model pulled", "model", c.model)
	return nil
}

// Generate runs a single non-streaming completion.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.TrimSpace(parsed.Response), nil
}

// Close releases idle connections.
func (c *OllamaClient) Close() {
	c.httpClient.CloseIdleConnections()
}
