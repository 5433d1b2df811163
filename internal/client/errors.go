package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the reportkit server, carrying the
// status code and the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsConflict reports whether err is a 409, e.g. deleting a definition that
// findings still reference.
func IsConflict(err error) bool { return statusIs(err, http.StatusConflict) }

// IsAuth reports whether err is a 401 that survived the automatic refresh.
func IsAuth(err error) bool { return statusIs(err, http.StatusUnauthorized) }

// IsValidation reports whether err is a 400 rejection.
func IsValidation(err error) bool { return statusIs(err, http.StatusBadRequest) }
