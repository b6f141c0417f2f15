package catalog

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

var ErrUnavailable = errors.New("catalog unavailable")

// Source yields an immutable catalog snapshot. Implementations are selected
// explicitly by the caller (remote or fixture); pricing code never falls back
// from one to the other, since silently pricing against stale or mock data is
// a correctness hazard.
type Source interface {
	Snapshot(ctx context.Context) (*entity.Catalog, error)
}
