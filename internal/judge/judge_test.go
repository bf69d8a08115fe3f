package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	lastReq   api.Request
	lastModel config.ModelConfig
}

func (f *fakeCompleter) ChatCompletion(ctx context.Context, model config.ModelConfig, apiKey string, req api.Request) (*api.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	f.lastReq = req
	f.lastModel = model
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	resp := &api.ChatCompletionResponse{Raw: body}
	resp.Choices = []api.Choice{{Message: api.Message{Role: "assistant", Content: api.MessageContent(content)}}}
	return resp, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Retry.BaseDelayMS = 1
	return cfg
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantAvg       float64
		wantCoherence float64
		wantRationale string
		wantFailed    bool
	}{
		{
			name:          "complete object",
			content:       `{"coherence": 8, "creativity": 7, "characterConsistency": 6, "styleMatch": 9, "endingStrength": 5, "avg": 7, "judgeRationale": "Solid."}`,
			wantAvg:       7,
			wantCoherence: 8,
			wantRationale: "Solid.",
		},
		{
			name:          "empty content is an empty object",
			content:       "",
			wantRationale: NoRationale,
		},
		{
			name:          "missing fields default to zero",
			content:       `{"coherence": 4}`,
			wantCoherence: 4,
			wantRationale: NoRationale,
		},
		{
			name:          "fenced with prose",
			content:       "Here you go:\n```json\n{\"coherence\": 6, \"avg\": 6.5, \"judgeRationale\": \"Fine\"}\n```",
			wantAvg:       6.5,
			wantCoherence: 6,
			wantRationale: "Fine",
		},
		{
			name:          "numeric strings",
			content:       `{"coherence": "7.5", "avg": " 6 "}`,
			wantAvg:       6,
			wantCoherence: 7.5,
			wantRationale: NoRationale,
		},
		{
			name:          "out of range is clamped",
			content:       `{"coherence": 14, "avg": -3}`,
			wantAvg:       0,
			wantCoherence: 10,
			wantRationale: NoRationale,
		},
		{
			name:          "rationale fallback key",
			content:       `{"avg": 5, "rationale": "Alt key"}`,
			wantAvg:       5,
			wantRationale: "Alt key",
		},
		{
			name:          "literal newline in rationale",
			content:       "{\"avg\": 5, \"judgeRationale\": \"line one\nline two\"}",
			wantAvg:       5,
			wantRationale: "line one\nline two",
		},
		{
			name:          "invalid json",
			content:       "I refuse to score this.",
			wantRationale: ParseErrorRationale,
			wantFailed:    true,
		},
		{
			name:          "truncated object",
			content:       `{"coherence": 7, "creativity": 8`,
			wantRationale: ParseErrorRationale,
			wantFailed:    true,
		},
		{
			name:          "truncated inside rationale",
			content:       `Scores below {"coherence": 9, "avg": 9, "judgeRationale": "cut off`,
			wantRationale: ParseErrorRationale,
			wantFailed:    true,
		},
		{
			name:          "json null",
			content:       "null",
			wantRationale: ParseErrorRationale,
			wantFailed:    true,
		},
		{
			name:          "array instead of object",
			content:       `[1, 2, 3]`,
			wantRationale: ParseErrorRationale,
			wantFailed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.content)
			if v.ParseFailed != tt.wantFailed {
				t.Errorf("ParseFailed = %v, want %v", v.ParseFailed, tt.wantFailed)
			}
			if v.Metrics.Avg != tt.wantAvg {
				t.Errorf("Avg = %v, want %v", v.Metrics.Avg, tt.wantAvg)
			}
			if v.Metrics.Coherence != tt.wantCoherence {
				t.Errorf("Coherence = %v, want %v", v.Metrics.Coherence, tt.wantCoherence)
			}
			if v.Rationale != tt.wantRationale {
				t.Errorf("Rationale = %q, want %q", v.Rationale, tt.wantRationale)
			}
		})
	}
}

func TestParseVerdict_FailureZeroesMetrics(t *testing.T) {
	v := ParseVerdict("not json {")
	if v.Metrics.Coherence != 0 || v.Metrics.Creativity != 0 || v.Metrics.Avg != 0 {
		t.Errorf("Expected zeroed metrics, got %+v", v.Metrics)
	}
}

func TestEvaluate_RequestShape(t *testing.T) {
	fc := &fakeCompleter{responses: []string{`{"coherence": 9, "avg": 8, "judgeRationale": "ok"}`}}
	j := New(testConfig(), "key", fc, testLogger(), nil)

	v, err := j.Evaluate(context.Background(), "The story text.")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if fc.lastReq.Temperature != 0 {
		t.Errorf("Expected judge temperature 0, got %v", fc.lastReq.Temperature)
	}
	if fc.lastReq.ResponseFormat == nil || fc.lastReq.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format, got %+v", fc.lastReq.ResponseFormat)
	}
	if len(fc.lastReq.Messages) != 2 || fc.lastReq.Messages[0].Role != "system" {
		t.Fatalf("Unexpected messages: %+v", fc.lastReq.Messages)
	}
	if !strings.Contains(fc.lastReq.Messages[1].Content.String(), "The story text.") {
		t.Error("Judge prompt does not embed the story")
	}
	if fc.lastModel.ModelName != "gpt-4o-mini" {
		t.Errorf("Expected judge model gpt-4o-mini, got %s", fc.lastModel.ModelName)
	}
	if v.Metrics.Avg != 8 || v.Rationale != "ok" {
		t.Errorf("Unexpected verdict: %+v", v)
	}
	if !strings.Contains(v.Raw, "\"choices\"") {
		t.Errorf("Expected raw response body, got %q", v.Raw)
	}
}

func TestEvaluate_LogsVerdictSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fc := &fakeCompleter{responses: []string{`{"coherence": 8, "avg": 7.5}`, `{"coherence": 8`}}
	j := New(testConfig(), "key", fc, logger, nil)

	if _, err := j.Evaluate(context.Background(), "story"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if _, err := j.Evaluate(context.Background(), "story"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`verdict="avg=7.5 parse_failed=false"`, `verdict="avg=0.0 parse_failed=true"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Log missing %s:\n%s", want, out)
		}
	}
}

func TestEvaluate_RecomputeAverage(t *testing.T) {
	cfg := testConfig()
	cfg.Judge.RecomputeAverage = true
	fc := &fakeCompleter{responses: []string{`{"coherence": 10, "creativity": 8, "characterConsistency": 6, "styleMatch": 4, "endingStrength": 2, "avg": 9.9}`}}
	j := New(cfg, "key", fc, testLogger(), nil)

	v, err := j.Evaluate(context.Background(), "story")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if v.Metrics.Avg != 6 {
		t.Errorf("Expected recomputed avg 6, got %v", v.Metrics.Avg)
	}
}

func TestEvaluate_ParseFailureIsNotAnError(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"definitely not json"}}
	j := New(testConfig(), "key", fc, testLogger(), nil)

	v, err := j.Evaluate(context.Background(), "story")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !v.ParseFailed || v.Rationale != ParseErrorRationale {
		t.Errorf("Unexpected verdict: %+v", v)
	}
	if fc.calls != 1 {
		t.Errorf("Parse failures must not be retried, got %d calls", fc.calls)
	}
}

func TestEvaluate_RetriesThenFails(t *testing.T) {
	busy := &api.APIError{Message: "busy", StatusCode: http.StatusServiceUnavailable, Retryable: true}
	fc := &fakeCompleter{errs: []error{busy, busy, busy}}
	j := New(testConfig(), "key", fc, testLogger(), nil)

	_, err := j.Evaluate(context.Background(), "story")
	if err == nil {
		t.Fatal("Expected error after retries")
	}
	if fc.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", fc.calls)
	}
}

func TestEvaluate_WithHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"response_format":{"type":"json_object"}`) {
			t.Errorf("Expected json_object response format in body: %s", body)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"{\"coherence\": 5, \"avg\": 5}"}]}}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Judge.BaseURL = server.URL
	j := New(cfg, "key", api.NewClient(testLogger(), nil), testLogger(), nil)

	v, err := j.Evaluate(context.Background(), "story")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if v.Metrics.Coherence != 5 || v.Metrics.Avg != 5 {
		t.Errorf("Unexpected metrics: %+v", v.Metrics)
	}
}
