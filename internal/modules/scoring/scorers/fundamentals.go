package scorers

import (
	"github.com/aristath/earnscan/internal/domain"
)

// FundamentalsScorer is a low-weight sanity check on market cap and share
// price. It nudges the composite toward liquid mid/large caps in a tradeable
// price range without ever excluding a ticker on its own.
type FundamentalsScorer struct {
	weight float64
}

// NewFundamentalsScorer creates the fundamentals scorer.
func NewFundamentalsScorer(weight float64) *FundamentalsScorer {
	if weight == 0 {
		weight = WeightFundamentals
	}
	return &FundamentalsScorer{weight: weight}
}

// Name returns the scorer name
func (s *FundamentalsScorer) Name() string { return "fundamentals" }

// Weight returns the scorer weight
func (s *FundamentalsScorer) Weight() float64 { return s.weight }

// HardFilter returns false
func (s *FundamentalsScorer) HardFilter() bool { return false }

// Score averages a market-cap bucket and a price-range bucket.
func (s *FundamentalsScorer) Score(snap domain.TickerSnapshot) float64 {
	return (s.capScore(snap.MarketCap) + s.priceScore(snap.Price)) / 2
}

func (s *FundamentalsScorer) capScore(cap float64) float64 {
	switch {
	case cap >= 10_000_000_000:
		return 100
	case cap >= 2_000_000_000:
		return 85
	case cap >= 500_000_000:
		return 70
	case cap >= 250_000_000:
		return 50
	default:
		return 30
	}
}

// priceScore favors the $20-$500 band. Very cheap stocks have wide relative
// spreads on their options, very expensive ones tie up too much collateral
// per contract.
func (s *FundamentalsScorer) priceScore(price float64) float64 {
	switch {
	case price >= 20 && price <= 500:
		return 100
	case price >= 10 && price < 20, price > 500 && price <= 1000:
		return 70
	case price >= 5 && price < 10:
		return 50
	default:
		return 30
	}
}
