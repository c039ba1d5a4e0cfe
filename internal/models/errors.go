package models

import (
	"fmt"
	"time"
)

// ConfigError reports a missing API key or malformed setting.
type ConfigError struct {
	Setting string
	Msg     string
}

func (e *ConfigError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("configuration error: %s is not set", e.Setting)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Msg)
}

// ValidationError reports a request that fails its contract. It is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

// RateLimitError reports an upstream 429 or equivalent.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// PlatformError reports a transport or API failure talking to an LLM provider.
type PlatformError struct {
	Provider  string
	Status    int
	Transient bool
	Err       error
}

func (e *PlatformError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// ResearchError reports that the research model produced no usable report.
type ResearchError struct {
	CompanyName string
	Err         error
}

func (e *ResearchError) Error() string {
	return fmt.Sprintf("research failed for %q: %v", e.CompanyName, e.Err)
}

func (e *ResearchError) Unwrap() error { return e.Err }

// RenderError reports that a PDF could not be produced.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render failed: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// StoreError reports a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s failed: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
