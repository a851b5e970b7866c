package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the catalog answers 404
var ErrNotFound = errors.New("product not found")

// StatusError is a non-2xx answer from the catalog
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog responded %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("catalog responded %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
