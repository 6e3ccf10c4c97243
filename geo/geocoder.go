// Package geo resolves coordinates to a country and a formatted
// address through a reverse geocoding provider.
package geo

import (
	"context"
	"errors"

	"photomap/model"
)

var ErrNoResult = errors.New("no geocoding result for coordinate")

type Resolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (model.Place, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, lat, lng float64) (model.Place, error)

func (f ResolverFunc) ReverseGeocode(ctx context.Context, lat, lng float64) (model.Place, error) {
	return f(ctx, lat, lng)
}
