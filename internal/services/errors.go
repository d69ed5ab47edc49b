package services

import "errors"

var (
	ErrBadCreds      = errors.New("invalid email or password")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrNotCancelable = errors.New("order can no longer be cancelled")
	ErrLoginRequired = errors.New("login required")
	ErrOutOfStock    = errors.New("product is out of stock")
)
