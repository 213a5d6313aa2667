package service

import (
	"errors"

	"shopping-service/internal/session"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnknownStore        = errors.New("unknown store")
	ErrItemNotFound        = errors.New("item not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveSessionExists = errors.New("an active shopping session already exists")
	ErrSessionNotCompleted = errors.New("session not completed")
	ErrSessionCompleted    = session.ErrSessionCompleted
	ErrInvalidStoreOrder   = session.ErrInvalidStoreOrder
)
