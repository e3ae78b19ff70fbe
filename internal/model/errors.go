package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure for retry decisions.
type ErrorKind uint8

const (
	// KindTransient covers timeouts, connection resets and other network
	// faults. Safe to retry immediately.
	KindTransient ErrorKind = iota
	// KindRateLimit means the exchange rejected the request for sending
	// too many. Retry after backing off.
	KindRateLimit
	// KindPermanent covers invalid symbols, authentication failures and
	// any other request the exchange rejected outright. Never retried.
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimit:
		return "rate_limit"
	case KindPermanent:
		return "permanent"
	}
	return "unknown"
}

// GatewayError wraps an exchange client failure with its retry class.
type GatewayError struct {
	Kind   ErrorKind
	Symbol string
	Err    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s error for %s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Retryable reports whether err is a gateway error worth retrying.
func Retryable(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind == KindTransient || ge.Kind == KindRateLimit
	}
	return false
}

// RateLimited reports whether err is a rate-limit rejection.
func RateLimited(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind == KindRateLimit
	}
	return false
}

// StoreError marks a sink write failure. Sink is "cache" or "durable".
type StoreError struct {
	Sink string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Sink, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
