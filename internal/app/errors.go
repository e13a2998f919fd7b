package app

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown email and wrong password
	// alike, so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	ErrEmailAlreadyExists  = errors.New("An account with this email already exists")
	ErrMissingFields       = errors.New("All fields are required")
	ErrPasswordsDoNotMatch = errors.New("Passwords do not match")
	ErrPasswordTooShort    = errors.New("Password must be at least 6 characters long")

	// ErrStoreUnavailable marks a backing-store failure on a path that must
	// not degrade (auth, sessions, catalog). Cart paths fall back to demo
	// mode instead of returning it.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrCartIdentityRequired = errors.New("user_id or session_id is required")
	ErrInvalidCartItem      = errors.New("product_id and name are required and price must not be negative")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")

	ErrInvalidProduct  = errors.New("product name is required and price and stock must not be negative")
	ErrProductNotFound = errors.New("product not found")
)
