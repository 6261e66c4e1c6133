package domain

import "errors"

var (
	ErrValidation       = errors.New("invalid order")
	ErrLifetimeExceeded = errors.New("lifetime exceeded")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNoRate           = errors.New("no rate available")
)
