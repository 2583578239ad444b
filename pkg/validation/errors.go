package validation

import (
	"strings"

	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

// FieldError names an invalid field and a human readable reason.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an ordered list of field errors. A nil or empty list means valid.
type Errors []FieldError

// Error implements the error interface.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields groups messages by field for inline display.
func (e Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// OrNil returns nil for an empty list so callers can return it as error.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(fe *FieldError) {
	if fe != nil {
		*e = append(*e, *fe)
	}
}

// AsError wraps a non-empty list in the VALIDATION_ERROR application error.
func (e Errors) AsError(message string) error {
	if len(e) == 0 {
		return nil
	}
	if message == "" {
		message = appErrors.ErrValidation.Message
	}
	return appErrors.Wrap(e, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
