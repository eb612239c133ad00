// Package apierror defines the error body returned by the REST API:
//
//	{"code": "rest_forbidden", "message": "...", "data": {"status": 401}}
//
// Error implements huma.StatusError so handlers can return it directly.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Error codes.
const (
	CodeForbidden          = "rest_forbidden"
	CodeInvalidID          = "rest_post_invalid_id"
	CodeThemeBroken        = "rest_theme_broken"
	CodeActiveTheme        = "rest_cannot_delete_active_theme"
	CodeInvalidCredentials = "rest_invalid_credentials"
	CodeRegistryError      = "rest_theme_registry_error"
	CodeInvalidParam       = "rest_invalid_param"
	CodeNoRoute            = "rest_no_route"
	CodeInternal           = "rest_internal_error"
)

// Data carries the HTTP status and optional validation details.
type Data struct {
	Status  int      `json:"status"`
	Details []string `json:"details,omitempty"`
}

// Error is a REST API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    Data   `json:"data"`
}

// New creates an Error.
func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Data: Data{Status: status}}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *Error) GetStatus() int {
	return e.Data.Status
}

// Forbidden is returned when the caller lacks a capability. Anonymous
// callers get 401 so they know to authenticate.
func Forbidden(authenticated bool, message string) *Error {
	status := http.StatusForbidden
	if !authenticated {
		status = http.StatusUnauthorized
	}
	return New(status, CodeForbidden, message)
}

// InvalidID is returned when no theme exists for the requested slug.
func InvalidID() *Error {
	return New(http.StatusNotFound, CodeInvalidID, "Theme not found.")
}

// ThemeBroken is returned when a theme exists but can't be presented.
func ThemeBroken() *Error {
	return New(http.StatusInternalServerError, CodeThemeBroken, "The theme could not be read.")
}

// ActiveTheme is returned when deleting the theme in use.
func ActiveTheme() *Error {
	return New(http.StatusConflict, CodeActiveTheme, "The active theme cannot be deleted.")
}

// InvalidCredentials is returned when authentication fails.
func InvalidCredentials() *Error {
	return New(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password.")
}

// RegistryFailure is returned when the theme registry can't be read or changed.
func RegistryFailure() *Error {
	return New(http.StatusInternalServerError, CodeRegistryError, "The theme registry is unavailable.")
}

// InvalidParam is returned when a request parameter is malformed.
func InvalidParam(details ...string) *Error {
	e := New(http.StatusUnprocessableEntity, CodeInvalidParam, "Invalid parameter(s).")
	e.Data.Details = details
	return e
}

// NoRoute is returned for unknown paths.
func NoRoute() *Error {
	return New(http.StatusNotFound, CodeNoRoute, "No route was found matching the URL and request method.")
}

// FromHuma builds the error huma reports for its own failures, such as
// request validation. Install it with huma.NewError = apierror.FromHuma.
func FromHuma(status int, message string, errs ...error) huma.StatusError {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = CodeInvalidParam
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = CodeNoRoute
	case http.StatusUnauthorized, http.StatusForbidden:
		code = CodeForbidden
	}

	e := New(status, code, message)
	for _, err := range errs {
		if err != nil {
			e.Data.Details = append(e.Data.Details, err.Error())
		}
	}
	return e
}

// Write sends e as a JSON response. It is used by middleware that runs
// before huma.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.GetStatus())
	_ = json.NewEncoder(w).Encode(e)
}

// As reports whether err is, or wraps, an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
