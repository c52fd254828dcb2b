// Package pricer provides gold and silver spot prices per gram.
package pricer

import (
	"context"

	"github.com/vadiminshakov/zakat/internal/domain"
)

// MetalPricer returns current USD prices per gram of gold and silver.
type MetalPricer interface {
	GetMetalPrices(ctx context.Context) (domain.MetalPrices, error)
}
