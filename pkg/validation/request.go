package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"studynotes/pkg/apperr"
	"studynotes/pkg/richtext"
)

// NoteInput is the body of a save-note request.
type NoteInput struct {
	Title   string `json:"title" form:"title" validate:"notblank,max=255"`
	Content string `json:"content" form:"content" validate:"notblank,notemptydoc"`
}

// ChatInput is the body of an ask-question request.
type ChatInput struct {
	Question string     `json:"question" validate:"notblank"`
	UserID   string     `json:"userId"`
	History  []ChatTurn `json:"history" validate:"omitempty,max=50,dive"`
}

type ChatTurn struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content" validate:"notblank"`
}

// RequestValidator satisfies echo.Validator and reports failures as *apperr.ValidationError.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("notemptydoc", notEmptyDoc)
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		fields[key] = append(fields[key], message(fe))
	}
	return &apperr.ValidationError{Fields: fields}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func notEmptyDoc(fl validator.FieldLevel) bool {
	return !richtext.IsEmptyDocument(fl.Field().String())
}

// fieldKey drops the struct name: "ChatInput.history[0].role" -> "history[0].role".
func fieldKey(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	name := label(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return name + " is required"
	case "notemptydoc":
		return name + " cannot be empty"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func label(field string) string {
	if field == "" {
		return "Value"
	}
	r := []rune(field)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
