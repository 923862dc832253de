package domain

import "errors"

var (
	// Client-correctable redemption errors
	ErrDailyLimitExceeded = errors.New("daily claim limit exceeded for this offer")
	ErrOfferNotEligible   = errors.New("offer is not eligible for claiming")
	ErrInvalidState       = errors.New("invalid entitlement state for this operation")
	ErrExpired            = errors.New("entitlement has expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotOwner           = errors.New("entitlement belongs to another user")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrVoidWindowExpired  = errors.New("void window has expired")
	ErrVoidWrongDay       = errors.New("redemption can only be voided on the day it occurred")

	// Common infrastructure errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
