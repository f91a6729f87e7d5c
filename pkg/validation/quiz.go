package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"studynotes/pkg/apperr"
	"studynotes/pkg/quiz/types"
)

// ExtractJSONArray returns the first well-formed JSON array found in raw model output.
// Arrays whose first element is an object are preferred, so a stray "[1]" in the
// surrounding prose does not shadow the actual payload. Any other array is only
// accepted when it starts before the first bracket that failed to decode; anything
// later may sit inside a broken outer array.
func ExtractJSONArray(raw string) (json.RawMessage, error) {
	var (
		firstAny json.RawMessage
		lastErr  error
		seen     bool
	)
	firstAnyAt, failedAt := -1, -1
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		seen = true
		var msg json.RawMessage
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&msg); err != nil {
			if failedAt < 0 {
				failedAt = i
			}
			lastErr = err
			continue
		}
		if firstAny == nil {
			firstAny, firstAnyAt = msg, i
		}
		if firstElementIsObject(msg) {
			return msg, nil
		}
	}
	if firstAny != nil && (failedAt < 0 || firstAnyAt < failedAt) {
		return firstAny, nil
	}
	if !seen {
		return nil, &apperr.QuizParseError{Reason: "no JSON array found in model response"}
	}
	return nil, &apperr.QuizParseError{Reason: "malformed JSON array in model response", Err: lastErr}
}

func firstElementIsObject(arr json.RawMessage) bool {
	body := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(arr), []byte("[")))
	return len(body) > 0 && body[0] == '{'
}

// ParseQuiz extracts, decodes and validates a quiz from raw model output.
func ParseQuiz(raw string, want int) (types.Quiz, error) {
	arr, err := ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(arr))
	dec.UseNumber()
	var candidate any
	if err := dec.Decode(&candidate); err != nil {
		return nil, &apperr.QuizParseError{Reason: "decode quiz array", Err: err}
	}
	return ValidateQuiz(candidate, want)
}

// ValidateQuiz checks an already-decoded JSON value against the quiz schema.
// want > 0 also pins the number of questions.
func ValidateQuiz(candidate any, want int) (types.Quiz, error) {
	items, ok := candidate.([]any)
	if !ok {
		return nil, &apperr.SchemaValidationError{Reason: "expected an array of questions"}
	}
	if len(items) == 0 {
		return nil, &apperr.SchemaValidationError{Reason: "quiz has no questions"}
	}
	if want > 0 && len(items) != want {
		return nil, &apperr.SchemaValidationError{Reason: fmt.Sprintf("expected %d questions, got %d", want, len(items))}
	}

	out := make(types.Quiz, 0, len(items))
	for i, item := range items {
		q, err := validateQuestion(i, item)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func validateQuestion(i int, item any) (types.Question, error) {
	path := fmt.Sprintf("[%d]", i)
	obj, ok := item.(map[string]any)
	if !ok {
		return types.Question{}, &apperr.SchemaValidationError{Path: path, Reason: "must be an object"}
	}

	text, ok := obj["question"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return types.Question{}, &apperr.SchemaValidationError{Path: path + ".question", Reason: "must be a non-empty string"}
	}

	rawOpts, ok := obj["options"].([]any)
	if !ok {
		return types.Question{}, &apperr.SchemaValidationError{Path: path + ".options", Reason: "must be an array"}
	}
	if len(rawOpts) != types.OptionCount {
		return types.Question{}, &apperr.SchemaValidationError{
			Path:   path + ".options",
			Reason: fmt.Sprintf("must contain exactly %d options, got %d", types.OptionCount, len(rawOpts)),
		}
	}
	opts := make([]string, len(rawOpts))
	for j, o := range rawOpts {
		s, ok := o.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return types.Question{}, &apperr.SchemaValidationError{Path: fmt.Sprintf("%s.options[%d]", path, j), Reason: "must be a non-empty string"}
		}
		opts[j] = s
	}

	answer, ok := asInt(obj["correctAnswer"])
	if !ok {
		return types.Question{}, &apperr.SchemaValidationError{Path: path + ".correctAnswer", Reason: "must be an integer"}
	}
	if answer < 0 || answer >= types.OptionCount {
		return types.Question{}, &apperr.SchemaValidationError{
			Path:   path + ".correctAnswer",
			Reason: fmt.Sprintf("must be between 0 and %d, got %d", types.OptionCount-1, answer),
		}
	}

	return types.Question{Question: text, Options: opts, CorrectAnswer: answer}, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asInt(f)
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
