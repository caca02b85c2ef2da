package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("streaming requested, want stream=false")
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "  a summary  ", "done": true})
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "test-model", 0)
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "a summary" {
		t.Errorf("out = %q", out)
	}
}

func TestOllama_GenerateServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "test-model", 0)
	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("no error from 503")
	}
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Errorf("error %v is not retryable", err)
	}
}

func TestOllama_GenerateBadRequestIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "test-model", 0)
	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("no error from 404")
	}
	if IsRetryable(err) {
		t.Errorf("404 should not be retryable: %v", err)
	}
}

func TestOllama_Availability(t *testing.T) {
	tests := []struct {
		name   string
		models []string
		want   Availability
	}{
		{"model listed", []string{"other:latest", "test-model:latest"}, Available},
		{"model absent", []string{"other:latest"}, Downloadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("path = %s", r.URL.Path)
				}
				type m struct {
					Name string `json:"name"`
				}
				var models []m
				for _, name := range tt.models {
					models = append(models, m{Name: name})
				}
				json.NewEncoder(w).Encode(map[string]any{"models": models})
			}))
			defer srv.Close()

			c := NewOllama(srv.URL, "test-model", 0)
			if got := c.Availability(context.Background()); got != tt.want {
				t.Errorf("Availability = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOllama_AvailabilityUnreachable(t *testing.T) {
	c := NewOllama("http://127.0.0.1:1", "test-model", 0)
	if got := c.Availability(context.Background()); got != Unavailable {
		t.Errorf("Availability = %q, want unavailable", got)
	}
}

func TestOllama_PullReportsDownloading(t *testing.T) {
	release := make(chan struct{})
	pullStarted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
		case "/api/pull":
			close(pullStarted)
			<-release
			json.NewEncoder(w).Encode(map[string]any{"status": "success"})
		default:
			t.Errorf("path = %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "test-model", 0)
	if got := c.Availability(context.Background()); got != Downloadable {
		t.Fatalf("before pull: Availability = %q, want downloadable", got)
	}

	pullErr := make(chan error, 1)
	go func() { pullErr <- c.Pull(context.Background()) }()
	<-pullStarted

	if got := c.Availability(context.Background()); got != Downloading {
		t.Errorf("during pull: Availability = %q, want downloading", got)
	}
	if err := c.Pull(context.Background()); err == nil {
		t.Error("concurrent Pull must report the pull already in flight")
	}

	close(release)
	if err := <-pullErr; err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if got := c.Availability(context.Background()); got == Downloading {
		t.Error("after pull: Availability still downloading")
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[1,2]\n```", "[1,2]"},
		{"[1,2]", "[1,2]"},
		{"  [1,2]  ", "[1,2]"},
	}
	for _, tt := range tests {
		if got := stripCodeBlock(tt.in); got != tt.want {
			t.Errorf("stripCodeBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
