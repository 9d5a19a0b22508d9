package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/targeting-cli/pkg/anthropic"
)

// extractText concatenates the text blocks of a message response.
func extractText(resp *anthropic.MessageResponse) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// cleanJSON strips markdown code fences and any prose surrounding the JSON
// object. Models occasionally wrap output in ```json fences or lead with a
// sentence; slicing from the first '{' to the last '}' recovers the object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// payload is implemented by every operation's response schema. applyDefaults
// fills absent optional fields so nothing un-defaulted escapes the adapter;
// validate rejects payloads missing required content.
type payload interface {
	applyDefaults()
	validate() error
	envelope() (confidence float64, reasoning string)
}

// decode parses cleaned model output into the operation schema, applies field
// defaults, and validates required content.
func decode[T any](text string) (*T, float64, string, error) {
	cleaned := cleanJSON(text)

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, 0, "", eris.Wrap(err, "decode response")
	}

	var confidence float64
	var reasoning string
	if p, ok := any(&out).(payload); ok {
		p.applyDefaults()
		if err := p.validate(); err != nil {
			return nil, 0, "", err
		}
		confidence, reasoning = p.envelope()
	}
	return &out, confidence, reasoning, nil
}
