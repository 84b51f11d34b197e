package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// moduleSchema is the shape a generated module payload must satisfy before
// it is mapped into domain entities: title, content, and a quiz of exactly
// five four-option questions.
const moduleSchema = `{
  "type": "object",
  "required": ["title", "content", "quiz"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "content": {"type": "string", "minLength": 1},
    "quiz": {
      "type": "object",
      "required": ["title", "questions"],
      "properties": {
        "title": {"type": "string"},
        "questions": {
          "type": "array",
          "minItems": 5,
          "maxItems": 5,
          "items": {
            "type": "object",
            "required": ["text", "options", "correctAnswer"],
            "properties": {
              "text": {"type": "string", "minLength": 1},
              "options": {
                "type": "array",
                "minItems": 4,
                "maxItems": 4,
                "items": {"type": "string"}
              },
              "correctAnswer": {"type": "integer", "minimum": 0, "maximum": 3}
            }
          }
        }
      }
    }
  }
}`

// generatedModule mirrors the JSON document the bot is instructed to return.
type generatedModule struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Quiz    struct {
		Title     string `json:"title"`
		Questions []struct {
			Text          string   `json:"text"`
			Options       []string `json:"options"`
			CorrectAnswer int      `json:"correctAnswer"`
		} `json:"questions"`
	} `json:"quiz"`
}

var compiledSchema *gojsonschema.Schema

func init() {
	var err error
	compiledSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(moduleSchema))
	if err != nil {
		panic(fmt.Sprintf("generator: invalid module schema: %v", err))
	}
}

// stripCodeFences removes markdown code-fence markers the model sometimes
// wraps its JSON in.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseModule validates and decodes a raw bot answer into a generated
// module document.
func parseModule(raw string) (*generatedModule, error) {
	text := stripCodeFences(raw)

	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("parse module JSON: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("module payload failed validation: %s", strings.Join(issues, "; "))
	}

	var gm generatedModule
	if err := json.Unmarshal([]byte(text), &gm); err != nil {
		return nil, fmt.Errorf("decode module payload: %w", err)
	}
	return &gm, nil
}
