package advisor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractAdvice pulls the advice JSON out of a free-form model answer.
// Three attempts, in order: a fenced ```json block, the outermost {...}
// object, the whole text as-is.
func extractAdvice(raw string) (*Advice, error) {
	var candidates []string

	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	candidates = append(candidates, raw)

	var lastErr error
	for _, candidate := range candidates {
		var advice Advice
		if err := json.Unmarshal([]byte(candidate), &advice); err != nil {
			lastErr = err
			continue
		}
		return &advice, nil
	}

	return nil, fmt.Errorf("не удалось распарсить JSON из ответа: %w", lastErr)
}
