// Package businessflow contains the core business logic and use cases for campaign tracking workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role selected")
	ErrRoleNotAllowed     = errors.New("role is not allowed to perform this action")
	ErrInfluencerRequired = errors.New("only influencers can generate tracking links")

	// Campaign-related errors
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrCampaignAccessDenied   = errors.New("campaign access denied")
	ErrCampaignNameRequired   = errors.New("campaign name is required")
	ErrInvalidDateRange       = errors.New("end date must be after start date")
	ErrStartDateInPast        = errors.New("start date cannot be in the past")
	ErrInvalidBudget          = errors.New("budget must be greater than zero")
	ErrInvalidCampaignStatus  = errors.New("invalid campaign status")
	ErrTargetURLRequired      = errors.New("campaign has no target URL to shorten")
	ErrCampaignUpdateRequired = errors.New("at least one field must be provided for update")

	// Tracking link errors
	ErrShortLinkRequired = errors.New("short link is required")
	ErrShortenerFailed   = errors.New("short link provider failed")

	// Product errors
	ErrProductNotFound = errors.New("product not found")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
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

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsUserAlreadyExists(err error) bool {
	return errors.Is(err, ErrUserAlreadyExists)
}

func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}

func IsRoleNotAllowed(err error) bool {
	return errors.Is(err, ErrRoleNotAllowed)
}

func IsInfluencerRequired(err error) bool {
	return errors.Is(err, ErrInfluencerRequired)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

func IsCampaignNameRequired(err error) bool {
	return errors.Is(err, ErrCampaignNameRequired)
}

func IsInvalidDateRange(err error) bool {
	return errors.Is(err, ErrInvalidDateRange)
}

func IsStartDateInPast(err error) bool {
	return errors.Is(err, ErrStartDateInPast)
}

func IsInvalidBudget(err error) bool {
	return errors.Is(err, ErrInvalidBudget)
}

func IsInvalidCampaignStatus(err error) bool {
	return errors.Is(err, ErrInvalidCampaignStatus)
}

func IsTargetURLRequired(err error) bool {
	return errors.Is(err, ErrTargetURLRequired)
}

func IsCampaignUpdateRequired(err error) bool {
	return errors.Is(err, ErrCampaignUpdateRequired)
}

func IsShortLinkRequired(err error) bool {
	return errors.Is(err, ErrShortLinkRequired)
}

func IsShortenerFailed(err error) bool {
	return errors.Is(err, ErrShortenerFailed)
}

func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
