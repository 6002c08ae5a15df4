package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"dmcgen/internal/config"
	"dmcgen/pkg/formatting"
)

// LLM classifies documents through the local generate endpoint. It issues
// exactly one outbound request per call; retry and backoff policy, if any,
// belongs to the caller.
type LLM struct {
	endpoint    string
	model       string
	temperature float64
	numPredict  int
	timeout     time.Duration
	client      *http.Client
	logger      *slog.Logger
}

// NewLLM creates a classifier from the given configuration.
func NewLLM(cfg config.LLMConfig, logger *slog.Logger) *LLM {
	return &LLM{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		numPredict:  cfg.NumPredict,
		timeout:     cfg.TimeoutDuration(),
		client:      &http.Client{},
		logger:      logger.With("system", "llm"),
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// llmAnswer is the untyped boundary payload. String fields tolerate the
// model emitting bare numbers; confidence distinguishes missing from zero.
type llmAnswer struct {
	System             flexString  `json:"system"`
	Subsystem          flexString  `json:"subsystem"`
	InfoCode           flexString  `json:"infoCode"`
	Disassembly        flexString  `json:"disassembly"`
	DisassemblyVariant flexString  `json:"disassemblyVariant"`
	InfoVariant        flexString  `json:"infoVariant"`
	Confidence         *flexNumber `json:"confidence"`
	Reasoning          string      `json:"reasoning"`
}

// Classify sends the prompt to the generate endpoint and parses the
// structured answer. Fails with ErrUnavailable, ErrTimeout, or ErrParse;
// a cancellation of ctx itself propagates unwrapped so the batch driver
// can distinguish operator stops from service failures.
func (c *LLM) Classify(ctx context.Context, prompt string) (*Candidate, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: generateOptions{
			Temperature: c.temperature,
			NumPredict:  c.numPredict,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no response within %v", ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %w", ErrParse, err)
	}

	return c.parseAnswer(gen.Response)
}

func (c *LLM) parseAnswer(raw string) (*Candidate, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}

	answer, err := formatting.Parse[llmAnswer](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if answer.System == "" || answer.Subsystem == "" || answer.InfoCode == "" {
		return nil, fmt.Errorf("%w: missing required code fields", ErrParse)
	}

	// Out-of-range or missing confidence is rejected, not clamped: silent
	// defaulting would hide a degraded signal from the operator.
	if answer.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ErrParse)
	}
	conf := float64(*answer.Confidence)
	if conf < 0 || conf > 100 {
		return nil, fmt.Errorf("%w: confidence %v out of range [0,100]", ErrParse, conf)
	}

	cand := &Candidate{
		System:             string(answer.System),
		Subsystem:          string(answer.Subsystem),
		Disassembly:        stringOr(answer.Disassembly, "00"),
		DisassemblyVariant: stringOr(answer.DisassemblyVariant, "A"),
		InfoCode:           string(answer.InfoCode),
		InfoVariant:        stringOr(answer.InfoVariant, "A"),
		Confidence:         int(math.Round(conf)),
		Reasoning:          answer.Reasoning,
		Source:             SourceLLM,
	}

	c.logger.Debug(
		"llm candidate parsed",
		"system", cand.System,
		"subsystem", cand.Subsystem,
		"info_code", cand.InfoCode,
		"confidence", cand.Confidence,
	)

	return cand, nil
}

func stringOr(v flexString, fallback string) string {
	if v == "" {
		return fallback
	}
	return string(v)
}

// flexString decodes a JSON string or bare number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	return fmt.Errorf("value %s is neither string nor number", data)
}

// flexNumber decodes a JSON number or numeric string into a float64.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return fmt.Errorf("value is null")
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexNumber(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("confidence %q is not numeric", s)
		}
		*f = flexNumber(parsed)
		return nil
	}

	return fmt.Errorf("value %s is not numeric", data)
}
