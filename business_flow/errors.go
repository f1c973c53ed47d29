// Package businessflow contains the core business logic for banner tracking workflows.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Banner-related errors
	ErrBannerNotFound  = errors.New("banner not found")
	ErrInvalidBannerID = errors.New("invalid banner id")

	// Campaign-related errors
	ErrCampaignNotFound = errors.New("campaign not found")

	// Analytics-related errors
	ErrUnknownWindow = errors.New("unknown analytics window")
	ErrInvalidLimit  = errors.New("limit must be between 1 and 500")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsBannerNotFound(err error) bool {
	return errors.Is(err, ErrBannerNotFound)
}

func IsInvalidBannerID(err error) bool {
	return errors.Is(err, ErrInvalidBannerID)
}

func IsUnknownWindow(err error) bool {
	return errors.Is(err, ErrUnknownWindow)
}

func IsInvalidLimit(err error) bool {
	return errors.Is(err, ErrInvalidLimit)
}
