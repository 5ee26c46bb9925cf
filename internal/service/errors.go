package service

import (
	"errors"
	"fmt"

	"signal_trade/internal/models"
)

// Sizing and position errors surfaced to the alert sender
var (
	ErrAmbiguousSizing    = errors.New("both amount and percent are set, use only one")
	ErrMissingSizing      = errors.New("neither amount nor percent is set")
	ErrFreeAmountNone     = errors.New("no free balance available")
	ErrShortPositionNone  = errors.New("no short position to close")
	ErrLongPositionNone   = errors.New("no long position to close")
	ErrPositionNone       = errors.New("no open position")
	ErrMinAmount          = errors.New("resolved amount is zero, below the minimum order size")
	ErrUnknownExchange    = errors.New("unknown exchange")
	ErrHedgeAmountMissing = errors.New("hedge amount is required")
)

// SubmissionError every attempt of a bounded retry failed
type SubmissionError struct {
	Label    string
	Attempts int
	Cause    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Label, e.Attempts, e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// OrderError a failed order together with the intent that produced it
type OrderError struct {
	Stage  string
	Intent *models.OrderIntent
	Cause  error
}

func (e *OrderError) Error() string {
	if e.Intent == nil {
		return fmt.Sprintf("%s order failed: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("%s order failed for %s %s on %s: %v",
		e.Stage, e.Intent.Side, e.Intent.Symbol(), e.Intent.Exchange, e.Cause)
}

func (e *OrderError) Unwrap() error { return e.Cause }

// HedgeError a hedge leg failed; Unwound reports whether the opposite leg was closed
type HedgeError struct {
	Leg     string
	Unwound bool
	Cause   error
}

func (e *HedgeError) Error() string {
	if e.Unwound {
		return fmt.Sprintf("hedge %s leg failed, foreign leg unwound: %v", e.Leg, e.Cause)
	}
	return fmt.Sprintf("hedge %s leg failed: %v", e.Leg, e.Cause)
}

func (e *HedgeError) Unwrap() error { return e.Cause }
