package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reflecta/reflecta-api/internal/analyzer"
	"github.com/reflecta/reflecta-api/internal/config"
	"google.golang.org/genai"
)

// systemInstruction frames the model as a clinical-style CBT assistant and
// demands a bare JSON reply.
const systemInstruction = `You are a clinical-style CBT assistant. Read the user's journal entry and produce a JSON object (no extra text) matching the schema described. Be concise but thorough.`

// schemaInstruction enumerates the response schema. The analyzer does not
// trust the model to honor it; see analyzer.Normalize.
const schemaInstruction = `Return a single JSON object with keys:
- summary (short string, 1-2 sentences)
- keywords (array of short single-word strings)
- negativeThoughts (array of objects { "excerpt": string })
- emotions (array of objects { "name": string, "score": number between 0 and 1 })
- distortions (array of objects { "type": string, "excerpt": string })
- evidenceForThoughts (array of strings)
- evidenceAgainstThoughts (array of strings)
- reframes (array of objects { "originalThought": string, "rationalResponse": string })
- suggestedActions (array of objects { "text": string })
- worksheetPrefill (object with keys like situation, thought, emotion, alternativeThought)

Make sure the output is valid JSON only (no surrounding backticks or explanation).
Now analyze the following journal entry:
"""%s"""`

// Analyzer implements the analyzer.Analyzer interface using Google's Gemini
// API. A failed call against the primary model is retried once against the
// configured fallback model; if both calls fail, or the response body cannot
// be parsed, the deterministic placeholder analysis is returned instead of
// an error so the processing pipeline never stalls on the external service.
type Analyzer struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
}

// NewAnalyzer creates a new Gemini-backed Analyzer with the provided
// configuration.
func NewAnalyzer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", analyzer.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analyzer.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", analyzer.ErrInvalidConfig, err)
	}

	return &Analyzer{
		logger: logger.With("component", "gemini_analyzer"),
		config: cfg,
		client: client,
	}, nil
}

// Analyze implements analyzer.Analyzer. The only error it returns is a
// context error: timeouts and cancellation must surface to the caller so the
// job is recorded as failed, while call and parse problems degrade through
// the fallback tiers.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*analyzer.RawAnalysis, error) {
	truncated := analyzer.TruncateText(text, a.config.MaxChars)
	prompt := fmt.Sprintf(schemaInstruction, truncated)

	body, model, err := a.generateWithFallback(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		a.logger.ErrorContext(ctx, "all model tiers failed, using placeholder analysis",
			"error", err)
		return analyzer.PlaceholderAnalysis(text), nil
	}

	raw, ok := parseAnalysis(body)
	if !ok {
		a.logger.WarnContext(ctx, "failed to parse model response, using placeholder analysis",
			"model", model,
			"response_length", len(body))
		return analyzer.PlaceholderAnalysis(text), nil
	}

	if raw.Version == "" {
		raw.Version = model
	}

	a.logger.DebugContext(ctx, "analysis produced by model", "model", model)
	return raw, nil
}

// generateWithFallback calls the primary model, then the fallback model if
// the primary invocation itself fails. The winning model's name is returned
// alongside the response text.
func (a *Analyzer) generateWithFallback(ctx context.Context, prompt string) (string, string, error) {
	body, err := a.generate(ctx, a.config.ModelName, prompt)
	if err == nil {
		return body, a.config.ModelName, nil
	}

	a.logger.WarnContext(ctx, "primary model call failed",
		"model", a.config.ModelName,
		"error", err)

	if ctx.Err() != nil || a.config.FallbackModel == "" {
		return "", "", err
	}

	body, fallbackErr := a.generate(ctx, a.config.FallbackModel, prompt)
	if fallbackErr != nil {
		a.logger.WarnContext(ctx, "fallback model call failed",
			"model", a.config.FallbackModel,
			"error", fallbackErr)
		return "", "", fmt.Errorf("%w: primary: %v; fallback: %v",
			analyzer.ErrCallFailed, err, fallbackErr)
	}

	return body, a.config.FallbackModel, nil
}

// generate performs a single content-generation call against the given model.
func (a *Analyzer) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", analyzer.ErrCallFailed, err)
	}

	body := resp.Text()
	if body == "" {
		return "", fmt.Errorf("%w: empty response body", analyzer.ErrCallFailed)
	}

	return body, nil
}

// parseAnalysis attempts a direct parse of the response body, then a parse
// of the first balanced JSON object embedded in it.
func parseAnalysis(body string) (*analyzer.RawAnalysis, bool) {
	var raw analyzer.RawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err == nil {
		return &raw, true
	}

	candidate, ok := extractJSONObject(body)
	if !ok {
		return nil, false
	}

	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, false
	}
	return &raw, true
}

// extractJSONObject locates the first balanced {...} substring in text,
// tracking string literals and escapes so braces inside strings don't
// unbalance the scan.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
