// Package validation implements request body validation with structured,
// field-level errors. Failures are reported as an ordered list of entries
// suitable for a 422 response with a "detail" field.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Error type identifiers carried in the 422 detail entries.
const (
	TypeMissing     = "value_error.missing"
	TypeString      = "type_error.str"
	TypeMinLength   = "value_error.any_str.min_length"
	TypeMaxLength   = "value_error.any_str.max_length"
	TypeJSONDecode  = "value_error.jsondecode"
	TypeEmailFormat = "value_error.email"
)

// Error is a single field-level validation failure.
type Error struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Errors is an ordered list of validation failures. It implements error so
// services can return it through the usual error path.
type Errors []Error

// Error implements the error interface.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for _, entry := range e {
		fields = append(fields, strings.Join(entry.Loc, "."))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// Add appends a failure for a body field.
func (e *Errors) Add(field, msg, typ string) {
	*e = append(*e, Error{Loc: []string{"body", field}, Msg: msg, Type: typ})
}

// AsErrors unwraps err into Errors if it carries one.
func AsErrors(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// DecodeBody decodes a JSON request body into dst. Wrong-typed fields and
// malformed JSON are reported as validation failures rather than opaque
// decode errors. dst fields should be pointers so that absent fields can be
// told apart from zero values.
func DecodeBody(body io.Reader, dst interface{}) Errors {
	data, err := io.ReadAll(body)
	if err != nil {
		return Errors{{Loc: []string{"body"}, Msg: "unable to read request body", Type: TypeJSONDecode}}
	}
	if len(data) == 0 {
		return Errors{{Loc: []string{"body"}, Msg: "field required", Type: TypeMissing}}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return Errors{{
				Loc:  []string{"body", typeErr.Field},
				Msg:  "str type expected",
				Type: TypeString,
			}}
		}
		return Errors{{Loc: []string{"body"}, Msg: "invalid JSON body", Type: TypeJSONDecode}}
	}
	return nil
}

// RequiredString records a missing-field failure when value is nil and
// returns the dereferenced value otherwise. The boolean reports presence.
func RequiredString(errs *Errors, field string, value *string) (string, bool) {
	if value == nil {
		errs.Add(field, "field required", TypeMissing)
		return "", false
	}
	return *value, true
}

// BoundedString records failures when value is empty after trimming or longer
// than max runes. Limits mirror the stored model constraints.
func BoundedString(errs *Errors, field, value string, max int) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "ensure this value has at least 1 characters", TypeMinLength)
		return
	}
	if utf8.RuneCountInString(value) > max {
		errs.Add(field, fmt.Sprintf("ensure this value has at most %d characters", max), TypeMaxLength)
	}
}

// Email records a failure when value does not look like an email address.
func Email(errs *Errors, field, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		errs.Add(field, "ensure this value has at least 1 characters", TypeMinLength)
		return
	}
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		errs.Add(field, "value is not a valid email address", TypeEmailFormat)
	}
}
