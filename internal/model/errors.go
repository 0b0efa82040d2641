package model

import (
	"fmt"
	"net/http"
)

// ServiceError is returned by analyzers when the remote vision service
// could not produce a result. StatusCode is zero for transport failures.
type ServiceError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s: status %d (%s): %s", e.Provider, e.StatusCode, e.Code, msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (e *ServiceError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
