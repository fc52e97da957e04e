package critique

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/phambaophuc/art-critique/internal/models"
)

var (
	jsonFenceRe = regexp.MustCompile("(?i)```json\\s*")
	fenceRe     = regexp.MustCompile("```")
)

// StripCodeFences removes markdown code fence markers, optionally tagged
// json in any case, and trims surrounding whitespace. Text without fences
// only gets trimmed.
func StripCodeFences(s string) string {
	s = jsonFenceRe.ReplaceAllString(s, "")
	s = fenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractCritique turns raw model output into a result. A JSON object is
// kept verbatim; anything else is returned as the raw fallback.
func ExtractCritique(text string) *models.CritiqueResult {
	cleaned := StripCodeFences(text)
	if isJSONObject(cleaned) {
		return models.NewStructuredCritique(json.RawMessage(cleaned))
	}
	return models.NewFallbackCritique(cleaned)
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
