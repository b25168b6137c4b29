package pricing

import (
	"context"
	"fmt"
	"log/slog"
)

// Service resolves individual asset quotes and pool contracts on top of the
// batch-oriented oracle.
type Service struct {
	oracle      Oracle
	defaultPool string
	log         *slog.Logger
}

// NewService builds a quote service. defaultPool is returned when a pair is
// not listed by the oracle.
func NewService(oracle Oracle, defaultPool string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		oracle:      oracle,
		defaultPool: defaultPool,
		log:         log,
	}
}

// GetQuote returns the quote for one asset. An asset the oracle does not
// list yields the tagged fallback quote; an oracle failure yields
// ErrQuoteUnavailable.
func (s *Service) GetQuote(ctx context.Context, assetID string) (Quote, error) {
	quotes, err := s.oracle.Quotes(ctx)
	if err != nil {
		s.log.Error("oracle quote fetch failed", "asset_id", assetID, "error", err)
		return Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	for _, q := range quotes {
		if q.AssetID == assetID {
			return q, nil
		}
	}

	s.log.Info("asset not listed by oracle, using fallback quote", "asset_id", assetID)
	return FallbackQuote(assetID), nil
}

// PoolFor returns the DEX pool contract for the given pair, or the
// configured default pool when the pair is not listed.
func (s *Service) PoolFor(ctx context.Context, assetA, assetB string) (string, error) {
	pools, err := s.oracle.Pools(ctx)
	if err != nil {
		s.log.Error("oracle pool fetch failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	for _, p := range pools {
		if p.TokenA == assetA && p.TokenB == assetB {
			return p.ContractID, nil
		}
	}

	return s.defaultPool, nil
}
