package analyzer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/domain"
)

// Normalize converts a loosely-typed RawAnalysis into a canonical
// domain.Analysis for the given journal and owner. Every array field that is
// not actually an array becomes an empty slice; elements that are strings
// where objects were expected (or the reverse) are reconciled per field.
// Normalize never fails on malformed content, only on invalid identifiers.
func Normalize(raw *RawAnalysis, journalID, userID uuid.UUID) (*domain.Analysis, error) {
	analysis, err := domain.NewAnalysis(journalID, userID)
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return analysis, nil
	}

	for _, el := range elements(raw.NegativeThoughts) {
		if text := textOf(el); text != "" {
			analysis.NegativeThoughts = append(analysis.NegativeThoughts, domain.Thought{Text: text})
		}
	}

	for _, el := range elements(raw.Emotions) {
		if emotion, ok := emotionOf(el); ok {
			analysis.Emotions = append(analysis.Emotions, emotion)
		}
	}

	for _, el := range elements(raw.Distortions) {
		if distortion, ok := distortionOf(el); ok {
			analysis.Distortions = append(analysis.Distortions, distortion)
		}
	}

	analysis.EvidenceFor = stringListOf(raw.EvidenceFor)
	analysis.EvidenceAgainst = stringListOf(raw.EvidenceAgainst)

	for _, el := range elements(raw.Reframes) {
		if reframe, ok := reframeOf(el); ok {
			analysis.Reframes = append(analysis.Reframes, reframe)
		}
	}

	for _, el := range elements(raw.SuggestedActions) {
		if text := textOf(el); text != "" {
			analysis.SuggestedActions = append(analysis.SuggestedActions, domain.Action{Text: text})
		}
	}

	analysis.WorksheetPrefill = stringMapOf(raw.WorksheetPrefill)
	analysis.Version = raw.Version

	return analysis, nil
}

// elements splits a raw JSON value into its array elements. Any value that
// is not an array yields nil, which substitutes an empty sequence downstream.
func elements(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// textOf extracts the semantic text of an element that may be a plain
// string, an object carrying the text under a known key, or anything else
// (which falls back to its literal JSON representation).
func textOf(el json.RawMessage) string {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(el, &obj); err == nil {
		for _, key := range []string{"text", "excerpt", "thought", "originalThought"} {
			if v, ok := obj[key]; ok {
				var inner string
				if err := json.Unmarshal(v, &inner); err == nil && inner != "" {
					return inner
				}
			}
		}
	}

	return literal(el)
}

// emotionOf reconciles an emotion element. Objects carry {name, score};
// plain strings become a named emotion with zero score. Scores are clamped
// to [0, 1].
func emotionOf(el json.RawMessage) (domain.Emotion, bool) {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		if s == "" {
			return domain.Emotion{}, false
		}
		return domain.Emotion{Name: s}, true
	}

	var obj struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(el, &obj); err != nil || obj.Name == "" {
		return domain.Emotion{}, false
	}

	if obj.Score < 0 {
		obj.Score = 0
	}
	if obj.Score > 1 {
		obj.Score = 1
	}
	return domain.Emotion{Name: obj.Name, Score: obj.Score}, true
}

// distortionOf reconciles a distortion element. The type may arrive as a
// plain string, as an object under "type" or "distortionType", or
// double-encoded as a JSON string containing another JSON value; one extra
// level of nested parsing is attempted before falling back to the literal.
func distortionOf(el json.RawMessage) (domain.Distortion, bool) {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		if t := distortionTypeFromString(s); t != "" {
			return domain.Distortion{Type: t}, true
		}
		return domain.Distortion{}, false
	}

	var obj struct {
		Type           string `json:"type"`
		DistortionType string `json:"distortionType"`
		Excerpt        string `json:"excerpt"`
	}
	if err := json.Unmarshal(el, &obj); err == nil {
		t := obj.Type
		if t == "" {
			t = obj.DistortionType
		}
		if t != "" {
			return domain.Distortion{Type: distortionTypeFromString(t), Excerpt: obj.Excerpt}, true
		}
	}

	if lit := literal(el); lit != "" {
		return domain.Distortion{Type: lit}, true
	}
	return domain.Distortion{}, false
}

// distortionTypeFromString unwraps a type value that may itself be encoded
// JSON (an object with a type key, or an array of such objects). Exactly one
// nested parse is attempted; anything else is taken literally.
func distortionTypeFromString(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}

	var nested struct {
		Type           string `json:"type"`
		DistortionType string `json:"distortionType"`
	}
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
			if nested.Type != "" {
				return nested.Type
			}
			if nested.DistortionType != "" {
				return nested.DistortionType
			}
		}
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil && len(list) > 0 {
		if err := json.Unmarshal(list[0], &nested); err == nil {
			if nested.Type != "" {
				return nested.Type
			}
			if nested.DistortionType != "" {
				return nested.DistortionType
			}
		}
	}
	return s
}

// reframeOf reconciles a reframe element. The origin field appears as
// either "originalThought" or "text" depending on the model's mood; a plain
// string becomes the rational response with no recorded original thought.
// The accepted flag always starts false.
func reframeOf(el json.RawMessage) (domain.Reframe, bool) {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		if s == "" {
			return domain.Reframe{}, false
		}
		return domain.Reframe{RationalResponse: s}, true
	}

	var obj struct {
		OriginalThought  string `json:"originalThought"`
		Text             string `json:"text"`
		RationalResponse string `json:"rationalResponse"`
	}
	if err := json.Unmarshal(el, &obj); err != nil {
		return domain.Reframe{}, false
	}

	original := obj.OriginalThought
	if original == "" {
		original = obj.Text
	}
	if original == "" && obj.RationalResponse == "" {
		return domain.Reframe{}, false
	}

	return domain.Reframe{
		OriginalThought:  original,
		RationalResponse: obj.RationalResponse,
	}, true
}

// stringListOf converts a raw JSON value into a flat string slice,
// extracting text from object elements where needed. Non-arrays yield an
// empty slice.
func stringListOf(raw json.RawMessage) []string {
	items := elements(raw)
	out := make([]string, 0, len(items))
	for _, el := range items {
		if text := textOf(el); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// stringMapOf converts a raw JSON object into a string-to-string map,
// stringifying non-string values. Anything that is not an object yields an
// empty map.
func stringMapOf(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return out
	}

	for key, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[key] = s
			continue
		}
		out[key] = literal(v)
	}
	return out
}

// literal renders a raw JSON value as its compact literal representation.
func literal(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
