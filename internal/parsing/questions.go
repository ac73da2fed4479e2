package parsing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/talent-match/internal/prompts"
)

// questionsSchema is deliberately loose on value types; coercion happens after validation.
const questionsSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["text"],
    "properties": {
      "text": {"type": "string", "minLength": 1},
      "type": {"type": "string"},
      "options": {"type": "array"},
      "expected_answer": {"type": ["string", "number", "boolean", "null"]},
      "points": {"type": ["integer", "number", "string", "null"]}
    }
  }
}`

var questionsSchemaLoader = gojsonschema.NewStringLoader(questionsSchema)

// QuestionFields is one question read from a model reply.
type QuestionFields struct {
	Text           string
	Type           string
	Options        []string
	ExpectedAnswer *string
	Points         int
}

// ParseQuestions reads the JSON array of questions that follows the QUESTIONS
// label, or the first JSON array in the text when the label is missing.
func ParseQuestions(raw string) ([]QuestionFields, error) {
	body := raw
	if s := splitSections(raw); s.has(prompts.LabelQuestions) {
		body = strings.Join(s[prompts.LabelQuestions], "\n")
	}

	fragment := extractJSON(body, '[', ']')
	if fragment == "" {
		return nil, &ParseError{Reason: "missing questions array"}
	}

	result, err := gojsonschema.Validate(questionsSchemaLoader, gojsonschema.NewStringLoader(fragment))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("questions array is not valid json: %v", err)}
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}
		return nil, &ParseError{Reason: "questions array does not match schema: " + strings.Join(descriptions, "; ")}
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(fragment), &items); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("decode questions: %v", err)}
	}

	questions := make([]QuestionFields, 0, len(items))
	for _, item := range items {
		q := QuestionFields{
			Text: coerceString(item["text"]),
			Type: coerceString(item["type"]),
		}
		if q.Text == "" {
			continue
		}

		if options, ok := item["options"].([]any); ok {
			for _, option := range options {
				if text := coerceString(option); text != "" {
					q.Options = append(q.Options, text)
				}
			}
		}

		if expected := coerceString(item["expected_answer"]); expected != "" {
			q.ExpectedAnswer = &expected
		}

		if points, ok := coerceInt(item["points"]); ok {
			q.Points = points
		}

		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, &ParseError{Reason: "no questions"}
	}
	return questions, nil
}
