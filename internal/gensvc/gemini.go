package gensvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

// GeminiEngine generates candidate items through the Gemini generateContent
// REST API. The HTTP client timeout is the upper bound on a generation call;
// the assembler degrades to the template fallback when it fires.
type GeminiEngine struct {
	APIKey string
	Model  string
	// BaseURL overrides the production endpoint, for tests.
	BaseURL string

	httpc *http.Client
	log   *zap.Logger
}

func NewGeminiEngine(apiKey, model string, timeout time.Duration, log *zap.Logger) *GeminiEngine {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GeminiEngine{
		APIKey: apiKey,
		Model:  model,
		httpc:  &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (e *GeminiEngine) Generate(ctx context.Context, req Request) (Response, error) {
	if e.APIKey == "" {
		return Response{}, fmt.Errorf("generation service: GEMINI_API_KEY is empty")
	}

	prompt := buildPrompt(req)
	body := map[string]any{
		"contents": []any{
			map[string]any{
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{"temperature": 0.7},
	}
	payload, _ := json.Marshal(body)

	base := e.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1"
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, e.Model, e.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return Response{}, fmt.Errorf("generation service %d: %s", resp.StatusCode, string(x))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Response{}, nil
	}
	return parseModelOutput(out.Candidates[0].Content.Parts[0].Text, e.log)
}

// buildPrompt pins the generator to the allocated intents: each question must
// follow its intent's answer shape and structural requirement verbatim.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You author exam items. Write exactly %d question(s) on the topic %q at cognitive level %q`, req.Count, req.Topic, req.Level)
	if req.Dimension != "" {
		fmt.Fprintf(&b, ` probing %s knowledge`, req.Dimension)
	}
	fmt.Fprintf(&b, ` with difficulty %q, item type %q.`, req.Difficulty, req.ItemType)
	b.WriteString("\n")

	for i, in := range req.Intents {
		fmt.Fprintf(&b, "Question %d MUST take the %q answer shape: %s.\n",
			i+1, in.Shape, taxonomy.ShapeRequirement(in.Shape))
	}
	if req.Snapshot != nil && len(req.Snapshot.UsedPairs) > 0 {
		b.WriteString("These concept/operation pairs are already used this session; do NOT reuse them:\n")
		for _, p := range req.Snapshot.UsedPairs {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	b.WriteString(`Return STRICT JSON, no prose, matching:
{"questions":[{"text":string,"choices":[string]|null,"answer":string,"answer_shape":string}]}
For mcq_single items give exactly 4 choices and set answer to the correct choice text.
For true_false items set answer to "true" or "false" and omit choices.`)
	return b.String()
}

// parseModelOutput tolerates markdown fences and trailing prose around the
// JSON payload; anything unparseable yields zero candidates rather than an
// error, since short responses are an expected service behavior.
func parseModelOutput(raw string, log *zap.Logger) (Response, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "{"); start > 0 {
		text = text[start:]
	}
	if end := strings.LastIndex(text, "}"); end >= 0 && end < len(text)-1 {
		text = text[:end+1]
	}

	var resp Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		if log != nil {
			log.Warn("generation service returned unparseable payload", zap.Error(err))
		}
		return Response{}, nil
	}
	// Drop blank candidates outright; the caller screens the rest.
	kept := resp.Questions[:0]
	for _, q := range resp.Questions {
		if strings.TrimSpace(q.Text) != "" && strings.TrimSpace(q.Answer) != "" {
			kept = append(kept, q)
		}
	}
	resp.Questions = kept
	return resp, nil
}
