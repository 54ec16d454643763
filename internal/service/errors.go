package service

import "errors"

var (
	ErrEmptyOrder      = errors.New("order has no items, nothing to checkout")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidInput    = errors.New("invalid input")
)
