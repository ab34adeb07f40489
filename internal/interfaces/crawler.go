package interfaces

import (
	"context"
	"time"

	"cei-crawler/internal/types"
)

// AssetsQuery selects which brokers and which date window to extract trades for.
// Nil Brokers means every broker; zero Start/End fall back to each broker's period.
type AssetsQuery struct {
	Brokers []types.Broker
	Start   time.Time
	End     time.Time
}

type Crawler interface {
	// Brokers lists the brokers, each with its accounts
	Brokers(ctx context.Context) ([]types.Broker, error)

	// AssetsExtract returns the trade history of the queried brokers
	AssetsExtract(ctx context.Context, q AssetsQuery) ([]types.AssetExtract, error)

	// PassiveIncomesExtract returns dividend-like events as of date (zero for the latest)
	PassiveIncomesExtract(ctx context.Context, date time.Time) ([]types.PassiveIncome, error)

	Close() error
}
