// Package domain provides definitions of all entities.
package domain

import "errors"

var (
	// ErrAccountNotFound indicates that the account referenced by an operation does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSenderNotFound indicates that the transfer sender does not exist.
	ErrSenderNotFound = errors.New("sender not found")
	// ErrRecipientNotFound indicates that the transfer recipient does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
)
