package appwrite

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a fault reported by the backend API.
type Error struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error returns the backend's own message so callers can wrap it without losing detail.
func (e *Error) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}
	return false
}

type statusCoder interface {
	GetStatusCode() int
}

type messager interface {
	GetMessage() string
}

type responder interface {
	GetResponse() string
}

// translateError turns an SDK error into *Error so callers can branch on the status code.
func translateError(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}

	var coded statusCoder
	if !errors.As(err, &coded) {
		return fmt.Errorf("appwrite request failed: %w", err)
	}

	apiErr = &Error{Code: coded.GetStatusCode(), Message: err.Error()}
	var withMessage messager
	if errors.As(err, &withMessage) && withMessage.GetMessage() != "" {
		apiErr.Message = withMessage.GetMessage()
	}
	var withResponse responder
	if errors.As(err, &withResponse) {
		var body Error
		if json.Unmarshal([]byte(withResponse.GetResponse()), &body) == nil {
			apiErr.Type = body.Type
			if body.Message != "" {
				apiErr.Message = body.Message
			}
		}
	}

	return apiErr
}

func unauthorized(message string) error {
	return &Error{Code: http.StatusUnauthorized, Type: "user_unauthorized", Message: message}
}
