package models

import "fmt"

// FetchError reports a listing page that could not be retrieved.
type FetchError struct {
	ID         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.ID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a required page element that was missing or malformed.
type ParseError struct {
	ID    string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s: %v", e.ID, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
