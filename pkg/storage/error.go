package storage

import (
	"fmt"
	"strings"
)

// Record kinds reported by NotFoundError and ConflictError.
const (
	KindFact = "fact"
	KindUser = "user"
)

// NotFoundError is returned when a record doesn't exist in the store, or is
// owned by someone else.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return e.kind() + " not found"
	}

	return e.kind() + " not found: " + e.Key
}

func (e NotFoundError) kind() string {
	if e.Kind == "" {
		return "record"
	}
	return e.Kind
}

// ConflictError is returned when a write would violate a uniqueness
// constraint, such as a duplicate question for the same owner.
type ConflictError struct {
	Kind string
	Key  string
}

func (e ConflictError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}
	return fmt.Sprintf("%s already exists: %s", kind, e.Key)
}

// ValidationError is returned when a write carries a value the store refuses,
// such as an empty question.
type ValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}
	return fmt.Sprintf("invalid %s %s: %s", kind, e.Field, e.Reason)
}

// ValidateFact checks the text fields every driver requires of a fact.
func ValidateFact(question, answer string) error {
	if strings.TrimSpace(question) == "" {
		return ValidationError{Kind: KindFact, Field: "question", Reason: "must not be empty"}
	}
	if strings.TrimSpace(answer) == "" {
		return ValidationError{Kind: KindFact, Field: "answer", Reason: "must not be empty"}
	}
	return nil
}
