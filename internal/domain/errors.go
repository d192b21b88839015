package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Market errors
var (
	// ErrMarketNotFound is returned when no market matches the given criteria.
	ErrMarketNotFound = errors.New("market not found")

	// ErrMarketClosed is returned when a bet is attempted on a market that is
	// not open and live.
	ErrMarketClosed = errors.New("market is closed for betting")

	// ErrMarketCancelled is returned when resolution is attempted on a
	// cancelled market.
	ErrMarketCancelled = errors.New("market is cancelled")

	// ErrResolutionInProgress is returned when a second resolution pass is
	// attempted while one already holds the market.
	ErrResolutionInProgress = errors.New("market resolution already in progress")

	// ErrOutcomeNotFound is returned when a referenced outcome does not exist
	// on the market.
	ErrOutcomeNotFound = errors.New("outcome not found")

	// ErrIncompleteResolution is returned when the multi-outcome resolution
	// payload does not carry a winner flag for every outcome.
	ErrIncompleteResolution = errors.New("resolution payload must flag every outcome")
)

// Bet errors
var (
	// ErrStakeOutOfRange is returned when a stake falls outside the configured
	// minimum/maximum bounds.
	ErrStakeOutOfRange = errors.New("stake amount is out of range")

	// ErrInvalidSelection is returned when the outcome selector cannot be
	// resolved to exactly one outcome of the market.
	ErrInvalidSelection = errors.New("invalid outcome selection")

	// ErrAlreadyBet is returned when the user already holds a bet on this
	// market (first-bet-wins; no position increase or hedging).
	ErrAlreadyBet = errors.New("you already have a bet on this market")

	// ErrBetNotFound is returned when no bet matches the given criteria.
	ErrBetNotFound = errors.New("bet not found")
)

// User / profile errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrProfileNotFound is returned when no profile exists for the user.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrUsernameTaken is returned on registration when the username already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserInactive is returned when a suspended user attempts an action.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInsufficientBalance is returned when a user's Zeny balance is too low
	// to cover the stake.
	ErrInsufficientBalance = errors.New("insufficient Zeny balance")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrMarketNotFound,
	ErrOutcomeNotFound,
	ErrBetNotFound,
	ErrUserNotFound,
	ErrProfileNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict.
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrEmailTaken,
		ErrUsernameTaken,
		ErrAlreadyBet,
		ErrMarketClosed,
		ErrMarketCancelled,
		ErrResolutionInProgress,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for errors caused by bad caller input; these are
// always detected before any write.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrStakeOutOfRange,
		ErrInvalidSelection,
		ErrIncompleteResolution,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenInvalid,
		ErrInvalidCredentials,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
