package forge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels for stores that do not speak HTTP.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// APIError is a non-2xx response from a forge REST API. GitHub and Gitea
// both return a JSON body with a message; GitHub adds field-level
// validation errors on 422.
type APIError struct {
	Provider   Provider
	Method     string
	URL        string
	StatusCode int
	Message    string
	Errors     []ValidationError
}

// ValidationError describes a validation failure on a resource field.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API %s %s: HTTP %d", e.Provider, e.Method, e.URL, e.StatusCode)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for _, v := range e.Errors {
		detail := v.Message
		if detail == "" {
			detail = v.Code
		}
		fmt.Fprintf(&b, "; %s.%s: %s", v.Resource, v.Field, detail)
	}
	return b.String()
}

// IsNotFound reports whether err means the release or asset does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAlreadyExists reports whether err means the release or asset was
// already created, by this job or a concurrent one. GitHub answers 422
// with code "already_exists"; Gitea answers 409.
func IsAlreadyExists(err error) bool {
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		for _, v := range apiErr.Errors {
			if v.Code == "already_exists" {
				return true
			}
		}
	}
	return false
}
