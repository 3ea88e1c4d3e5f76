package ebird

import (
	"errors"
	"fmt"
)

// ErrLookup is matched by every failure to find a name in one of the fixed
// tables (protocols, units).
var ErrLookup = errors.New("lookup failed")

// TransportError is a failure to retrieve a page from the site.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StructureError means the page no longer has the shape the parsers expect,
// an element or label that is assumed to exist is missing or malformed.
type StructureError struct {
	Element string
	Err     error
}

func (e *StructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected page structure: %s: %v", e.Element, e.Err)
	}
	return fmt.Sprintf("unexpected page structure: %s not found", e.Element)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

func structureError(element string, err error) error {
	return &StructureError{Element: element, Err: err}
}

// MissingFieldError is returned when an effort field the protocol requires
// is not on the page.
type MissingFieldError struct {
	Protocol string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("protocol %q: the %s field was not found", e.Protocol, e.Field)
}

type UnknownProtocolError struct {
	Name string
	// closest known protocol name, empty if nothing was similar enough
	Suggestion string
}

func (e *UnknownProtocolError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown protocol %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown protocol %q", e.Name)
}

func (e *UnknownProtocolError) Is(target error) bool {
	return target == ErrLookup
}

type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Unit)
}

func (e *UnknownUnitError) Is(target error) bool {
	return target == ErrLookup
}
