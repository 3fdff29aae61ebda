package analyzer

import (
	"context"
	"encoding/json"
)

// Analyzer converts free journal text into a structured analysis payload.
// Implementations must never fail on malformed upstream output: parse and
// format problems are absorbed into a deterministic placeholder so that
// downstream processing never stalls. An error return is reserved for
// failures the caller should record on the job (cancellation, programming
// errors).
// Version: 1.0
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*RawAnalysis, error)
}

// RawAnalysis mirrors the response schema requested from the external
// analytical service. The service is not trusted to honor the schema:
// array fields may arrive as scalars, elements may be plain strings where
// objects were requested and vice versa, and enum-ish values are sometimes
// double-encoded JSON. Fields therefore stay as raw JSON here and are
// reconciled by Normalize.
type RawAnalysis struct {
	Summary          json.RawMessage `json:"summary"`
	Keywords         json.RawMessage `json:"keywords"`
	NegativeThoughts json.RawMessage `json:"negativeThoughts"`
	Emotions         json.RawMessage `json:"emotions"`
	Distortions      json.RawMessage `json:"distortions"`
	EvidenceFor      json.RawMessage `json:"evidenceForThoughts"`
	EvidenceAgainst  json.RawMessage `json:"evidenceAgainstThoughts"`
	Reframes         json.RawMessage `json:"reframes"`
	SuggestedActions json.RawMessage `json:"suggestedActions"`
	WorksheetPrefill json.RawMessage `json:"worksheetPrefill"`
	Version          string          `json:"analysisVersion,omitempty"`
}

// SummaryText returns the summary as plain text, tolerating a summary that
// arrived as a non-string value. Returns "" when absent.
func (r *RawAnalysis) SummaryText() string {
	if len(r.Summary) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Summary, &s); err == nil {
		return s
	}
	return textOf(r.Summary)
}

// KeywordList returns the keywords as a flat string slice, tolerating
// missing or non-array values.
func (r *RawAnalysis) KeywordList() []string {
	return stringListOf(r.Keywords)
}
