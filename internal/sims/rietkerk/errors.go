package rietkerk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReset is returned when stepping a world that has not been seeded.
	ErrNotReset = errors.New("rietkerk: world has not been reset")
	// ErrFinished is returned when stepping a world that already completed or failed.
	ErrFinished = errors.New("rietkerk: run already finished")
)

// FieldError names one invalid configuration value.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Reason)
}

// ConfigError is returned before any stepping when the configuration is
// invalid. It lists every offending field.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "rietkerk: invalid configuration: " + strings.Join(parts, "; ")
}

// Has reports whether the named field was rejected.
func (e *ConfigError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// DomainError reports a rate function called outside its domain: a negative
// or non-finite state value, a negative rate or a non-positive saturation
// constant. Inside a run it indicates a clamping defect and is fatal.
type DomainError struct {
	Func  string
	Arg   string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("rietkerk: %s: argument %s=%g out of domain", e.Func, e.Arg, e.Value)
}

// InstabilityError reports a non-finite layer value after a step, which means
// the timestep is too large for the chosen parameters.
type InstabilityError struct {
	Step  int
	X, Y  int
	Layer string
	Value float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("rietkerk: numerical instability at step %d: %s(%d,%d)=%g", e.Step, e.Layer, e.X, e.Y, e.Value)
}
