package service

import (
	"time"

	"signal_trade/internal/config"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// SubmitResult outcome of a bounded retry
type SubmitResult struct {
	Order    *models.Order
	Attempts int
	Cause    error
}

// Err nil on success, otherwise a *SubmissionError wrapping the last cause
func (r SubmitResult) Err(label string) error {
	if r.Cause == nil {
		return nil
	}
	return &SubmissionError{Label: label, Attempts: r.Attempts, Cause: r.Cause}
}

// RetryingSubmitter runs an order call up to a fixed number of times with a constant delay.
// A started loop runs to exhaustion; callers detach request contexts before invoking it.
type RetryingSubmitter struct {
	sleep func(time.Duration)
	venue string
}

// NewRetryingSubmitter submitter for one venue
func NewRetryingSubmitter(venue string) *RetryingSubmitter {
	return &RetryingSubmitter{sleep: time.Sleep, venue: venue}
}

// Submit calls fn until it succeeds or budget.Attempts calls have failed.
// Every failure is retried; no delay follows the last attempt.
func (s *RetryingSubmitter) Submit(stage string, budget config.RetryBudget, fn func() (*models.Order, error)) SubmitResult {
	attempts := budget.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		observeAttempt(s.venue, stage)
		order, err := fn()
		if err == nil {
			return SubmitResult{Order: order, Attempts: i}
		}
		lastErr = err

		if i < attempts {
			logger.WithFields(logger.Fields{
				"exchange": s.venue,
				"stage":    stage,
				"attempt":  i,
				"max":      attempts,
			}).Warnf("order submission failed, retrying: %v", err)
			s.sleep(budget.Delay)
		}
	}

	logger.WithFields(logger.Fields{
		"exchange": s.venue,
		"stage":    stage,
		"attempts": attempts,
	}).Errorf("order submission exhausted: %v", lastErr)
	return SubmitResult{Attempts: attempts, Cause: lastErr}
}
