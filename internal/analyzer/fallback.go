package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// PlaceholderVersion tags analyses produced by the deterministic fallback
// so they are distinguishable from real analyzer output.
const PlaceholderVersion = "deterministic-fallback"

// DefaultMaxChars is the default character budget for a single analyzer call.
const DefaultMaxChars = 12000

// truncationMarker joins the retained head and tail of an over-budget entry.
const truncationMarker = "\n\n...[truncated]...\n\n"

// TruncateText trims long entries to at most max characters for LLM calls.
// Rather than cutting the end, it keeps roughly the first 60% and last 40%
// of the budget joined by an explicit truncation marker, preserving both the
// opening and closing context of the entry.
func TruncateText(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxChars
	}

	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	head := runes[:max*6/10]
	tail := runes[len(runes)-max*4/10:]
	return string(head) + truncationMarker + string(tail)
}

// PlaceholderAnalysis returns a deterministic, schema-valid analysis derived
// trivially from the input text. It is the last tier of the analyzer's
// fallback chain: when the external service is unreachable or returns
// garbage, downstream processing continues with this instead of stalling.
func PlaceholderAnalysis(text string) *RawAnalysis {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])

	summary := firstLine
	if summary == "" {
		summary = "User wrote about some feelings today."
	}

	raw := &RawAnalysis{
		Summary:          mustRaw(summary),
		Keywords:         mustRaw(placeholderKeywords(text)),
		NegativeThoughts: mustRaw([]map[string]string{}),
		Emotions: mustRaw([]map[string]any{
			{"name": "anxiety", "score": 0.5},
			{"name": "sadness", "score": 0.2},
		}),
		Distortions: mustRaw([]map[string]string{
			{"type": "Overgeneralization", "excerpt": firstLine},
		}),
		EvidenceFor:     mustRaw([]string{}),
		EvidenceAgainst: mustRaw([]string{}),
		Reframes: mustRaw([]map[string]string{
			{"originalThought": firstLine, "rationalResponse": "This was one event, not the whole story."},
		}),
		SuggestedActions: mustRaw([]map[string]string{
			{"text": "Take a 10-minute walk."},
		}),
		WorksheetPrefill: mustRaw(map[string]string{
			"situation":          firstLine,
			"thought":            firstLine,
			"emotion":            "anxious",
			"alternativeThought": "One day does not define capability.",
		}),
		Version: PlaceholderVersion,
	}

	if firstLine != "" {
		raw.NegativeThoughts = mustRaw([]map[string]string{{"excerpt": firstLine}})
	}

	return raw
}

// placeholderKeywords picks up to six lowercase alphabetic words from the
// start of the text, deduplicated in order of first appearance.
func placeholderKeywords(text string) []string {
	keywords := make([]string, 0, 6)
	seen := map[string]bool{}

	for _, word := range strings.Fields(text) {
		cleaned := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				return r
			}
			return -1
		}, word)
		cleaned = strings.ToLower(cleaned)

		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		keywords = append(keywords, cleaned)
		if len(keywords) == 6 {
			break
		}
	}

	return keywords
}

// mustRaw marshals a value known to be marshalable into raw JSON.
func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable types, which the placeholder
		// never uses.
		return json.RawMessage(`null`)
	}
	return data
}

// StaticAnalyzer is an Analyzer that always returns the deterministic
// placeholder analysis. It is used in local development and tests when no
// external analytical service is configured.
type StaticAnalyzer struct {
	logger *slog.Logger
}

// NewStaticAnalyzer creates a StaticAnalyzer.
func NewStaticAnalyzer(logger *slog.Logger) *StaticAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticAnalyzer{logger: logger.With("component", "static_analyzer")}
}

// Analyze implements Analyzer.
func (a *StaticAnalyzer) Analyze(ctx context.Context, text string) (*RawAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "returning placeholder analysis", "text_length", len(text))
	return PlaceholderAnalysis(text), nil
}
