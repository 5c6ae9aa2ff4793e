package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError. The HTTP boundary maps kinds to status codes;
// the core never deals in status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindRateLimited
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// AppError is a typed failure returned by the core.
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so errors.Is(err, ErrWalletNotFound()) works.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, kind Kind) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, kind Kind, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Err:     err,
	}
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ---- Wallet (WAL) ----

func ErrInvalidAmount() *AppError {
	return New("WAL_001", "Amount must be positive with at most 2 decimal places", KindValidation)
}

func ErrInsufficientFunds() *AppError {
	return New("WAL_002", "Insufficient balance in wallet", KindValidation)
}

func ErrWalletNotFound() *AppError {
	return New("WAL_003", "Wallet not found", KindNotFound)
}

// ---- Users (USR) ----

func ErrUserNotFound() *AppError {
	return New("USR_001", "User not found", KindNotFound)
}

func ErrDuplicateUsername() *AppError {
	return New("USR_002", "Username already exists", KindValidation)
}

// Validation returns a USR_003 validation error with a caller-facing message.
func Validation(message string) *AppError {
	return New("USR_003", message, KindValidation)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", KindUnauthenticated)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", KindUnauthenticated)
}

func ErrUnauthorizedAccess() *AppError {
	return New("AUTH_003", "Not permitted to access this wallet", KindForbidden)
}

// ---- Currency (CUR) ----

func ErrUnknownCurrency(code string) *AppError {
	return New("CUR_001", fmt.Sprintf("Unknown currency %q", code), KindValidation)
}

func ErrConversionUnavailable(err error) *AppError {
	return Wrap("CUR_002", "Currency conversion unavailable", KindUnavailable, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", KindRateLimited)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", KindInternal, err)
}
