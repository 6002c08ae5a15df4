package classify_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dmcgen/internal/classify"
	"dmcgen/internal/config"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLLM(t *testing.T, endpoint, timeout string) *classify.LLM {
	t.Helper()
	cfg := config.LLMConfig{
		Endpoint:   endpoint,
		Model:      "llama3.1:8b",
		Timeout:    timeout,
		NumPredict: 300,
	}
	return classify.NewLLM(cfg, discard())
}

func generateServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path: got %q, want /api/generate", r.URL.Path)
		}
		fmt.Fprintf(w, `{"response": %q}`, answer)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifySuccess(t *testing.T) {
	srv := generateServer(t, `{"system":"24","subsystem":"10","infoCode":"520","confidence":85,"reasoning":"removal steps"}`)
	llm := newLLM(t, srv.URL, "5s")

	cand, err := llm.Classify(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if cand.System != "24" || cand.Subsystem != "10" || cand.InfoCode != "520" {
		t.Errorf("codes: got %s-%s %s", cand.System, cand.Subsystem, cand.InfoCode)
	}
	if cand.Confidence != 85 {
		t.Errorf("confidence: got %d, want 85", cand.Confidence)
	}
	if cand.Source != classify.SourceLLM {
		t.Errorf("source: got %q", cand.Source)
	}
	// Optional fields default when absent from the answer.
	if cand.Disassembly != "00" || cand.DisassemblyVariant != "A" || cand.InfoVariant != "A" {
		t.Errorf("defaults: got %q %q %q", cand.Disassembly, cand.DisassemblyVariant, cand.InfoVariant)
	}
}

func TestClassifyLenientAnswers(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"fenced json", "```json\n{\"system\":\"24\",\"subsystem\":\"10\",\"infoCode\":\"520\",\"confidence\":70}\n```"},
		{"prose wrapped", `Here is my answer: {"system":"24","subsystem":"10","infoCode":"520","confidence":70} hope that helps`},
		{"bare number codes", `{"system":24,"subsystem":10,"infoCode":520,"confidence":70}`},
		{"string confidence", `{"system":"24","subsystem":"10","infoCode":"520","confidence":"70"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := generateServer(t, tt.answer)
			llm := newLLM(t, srv.URL, "5s")

			cand, err := llm.Classify(context.Background(), "prompt")
			if err != nil {
				t.Fatalf("classify failed: %v", err)
			}
			if cand.System != "24" || cand.Confidence != 70 {
				t.Errorf("got system %q confidence %d", cand.System, cand.Confidence)
			}
		})
	}
}

func TestClassifyParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"empty response", ""},
		{"not json", "I could not classify this document."},
		{"missing system", `{"subsystem":"10","infoCode":"520","confidence":70}`},
		{"missing info code", `{"system":"24","subsystem":"10","confidence":70}`},
		{"missing confidence", `{"system":"24","subsystem":"10","infoCode":"520"}`},
		{"null confidence", `{"system":"24","subsystem":"10","infoCode":"520","confidence":null}`},
		{"confidence above range", `{"system":"24","subsystem":"10","infoCode":"520","confidence":150}`},
		{"confidence below range", `{"system":"24","subsystem":"10","infoCode":"520","confidence":-5}`},
		{"non-numeric confidence", `{"system":"24","subsystem":"10","infoCode":"520","confidence":"high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := generateServer(t, tt.answer)
			llm := newLLM(t, srv.URL, "5s")

			_, err := llm.Classify(context.Background(), "prompt")
			if !errors.Is(err, classify.ErrParse) {
				t.Errorf("got %v, want ErrParse", err)
			}
		})
	}
}

func TestClassifyUnavailable(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		llm := newLLM(t, srv.URL, "5s")
		_, err := llm.Classify(context.Background(), "prompt")
		if !errors.Is(err, classify.ErrUnavailable) {
			t.Errorf("got %v, want ErrUnavailable", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		llm := newLLM(t, srv.URL, "5s")
		_, err := llm.Classify(context.Background(), "prompt")
		if !errors.Is(err, classify.ErrUnavailable) {
			t.Errorf("got %v, want ErrUnavailable", err)
		}
	})
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	llm := newLLM(t, srv.URL, "50ms")
	_, err := llm.Classify(context.Background(), "prompt")
	if !errors.Is(err, classify.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestClassifyCancellationPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	llm := newLLM(t, srv.URL, "5s")
	_, err := llm.Classify(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	// Operator stops are not service failures.
	if errors.Is(err, classify.ErrTimeout) || errors.Is(err, classify.ErrUnavailable) {
		t.Errorf("cancellation must not wear a service failure type: %v", err)
	}
}
