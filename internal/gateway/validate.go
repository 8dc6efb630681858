package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxQueryLength is the longest accepted search query, in characters.
const MaxQueryLength = 100

// ValidationError reports invalid request input, keyed by field name.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, " ")))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

type searchParams struct {
	Query string `validate:"required,min=1,max=100"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// searchQuery extracts and validates the query parameter. Surrounding
// whitespace is dropped before validation; length is counted in runes.
func (h *Handler) searchQuery(r *http.Request) (string, *ValidationError) {
	values := r.URL.Query()
	for key := range values {
		if strings.HasPrefix(key, "query[") {
			return "", invalidQuery("The query field must be a string.")
		}
	}

	var p searchParams
	if vals := values["query"]; len(vals) > 0 {
		p.Query = strings.TrimSpace(vals[len(vals)-1])
	}

	err := h.validate.Struct(p)
	if err == nil {
		return p.Query, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "", invalidQuery("The query field is invalid.")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, queryMessage(fe.Tag()))
	}
	return "", invalidQuery(msgs...)
}

func queryMessage(tag string) string {
	switch tag {
	case "required":
		return "The query field is required."
	case "min":
		return "The query field must be at least 1 characters."
	case "max":
		return fmt.Sprintf("The query field must not be greater than %d characters.", MaxQueryLength)
	default:
		return "The query field is invalid."
	}
}

func invalidQuery(msgs ...string) *ValidationError {
	return &ValidationError{
		Message: "Invalid search query",
		Fields:  map[string][]string{"query": msgs},
	}
}
