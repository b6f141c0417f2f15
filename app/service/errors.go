package service

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrPreviewSuperseded    = errors.New("preview superseded by a newer request")
	ErrStaleCatalog         = errors.New("catalog changed since preview")
)
