package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation = errors.New("market: validation failed")
	ErrOutOfRange = errors.New("market: out of range")
)

// ValidationError reports malformed input series. It is fatal at
// construction time.
type ValidationError struct {
	Ticker string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Ticker == "" {
		return "market: " + e.Reason
	}
	return fmt.Sprintf("market: %s: %s", e.Ticker, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type OutOfRangeError struct {
	Ticker string
	Date   time.Time
	Reason string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("market: %s on %s: %s", e.Ticker, e.Date.Format("2006-01-02"), e.Reason)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }
