package apiclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/validation"
)

var reasonKeys = []string{"detail", "message", "non_field_errors", "error"}

// errorFromResponse maps a non-2xx backend response to an *appErrors.Error
// whose message is the server-provided reason. Field errors of a 400 are
// carried as validation.Errors keyed in client case.
func errorFromResponse(status int, raw []byte) error {
	body, err := casing.FromJSON(raw)
	if err != nil {
		body = casing.Null()
	}

	base := baseError(status)
	reason := Reason(body)
	if reason == "" {
		reason = base.Message
	}

	var cause error = fmt.Errorf("upstream responded %d", status)
	if status == http.StatusBadRequest {
		if fields := fieldErrors(body); len(fields) > 0 {
			cause = fields
		}
	}
	return appErrors.Wrap(cause, base.Code, base.Status, reason)
}

func baseError(status int) *appErrors.Error {
	switch {
	case status == http.StatusBadRequest:
		return appErrors.ErrValidation
	case status == http.StatusUnauthorized:
		return appErrors.ErrInvalidCredentials
	case status == http.StatusForbidden:
		return appErrors.ErrForbidden
	case status == http.StatusNotFound:
		return appErrors.ErrNotFound
	case status == http.StatusConflict:
		return appErrors.ErrConflict
	case status == http.StatusPreconditionFailed:
		return appErrors.ErrPreconditionFailed
	case status >= 500:
		return appErrors.ErrUpstream
	default:
		return appErrors.New(appErrors.ErrUpstream.Code, status, http.StatusText(status))
	}
}

// Reason extracts the human-readable failure reason from an error body:
// detail, message, non_field_errors or else the first field error.
func Reason(body casing.Value) string {
	switch body.Kind() {
	case casing.KindPrimitive:
		return strings.TrimSpace(body.String())
	case casing.KindSequence:
		return firstString(body)
	case casing.KindMapping:
	default:
		return ""
	}

	for _, key := range reasonKeys {
		if v, ok := body.Get(key); ok {
			if msg := firstString(v); msg != "" {
				return msg
			}
		}
	}
	for _, e := range body.Entries() {
		if msg := firstString(e.Value); msg != "" {
			return casing.ToCamel(e.Key) + ": " + msg
		}
	}
	return ""
}

func fieldErrors(body casing.Value) validation.Errors {
	if body.Kind() != casing.KindMapping {
		return nil
	}
	var out validation.Errors
	for _, e := range body.Entries() {
		if isReasonKey(e.Key) || e.Key == "code" {
			continue
		}
		if msg := firstString(e.Value); msg != "" {
			out = append(out, validation.FieldError{Field: casing.ToCamel(e.Key), Message: msg})
		}
	}
	return out
}

func isReasonKey(key string) bool {
	for _, k := range reasonKeys {
		if k == key {
			return true
		}
	}
	return false
}

func firstString(v casing.Value) string {
	switch v.Kind() {
	case casing.KindPrimitive:
		return strings.TrimSpace(v.String())
	case casing.KindSequence:
		for _, item := range v.Items() {
			if s := strings.TrimSpace(item.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
