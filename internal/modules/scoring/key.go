package scoring

import "github.com/aristath/earnscan/internal/domain"

// snapshotKey is a flat, comparable image of a TickerSnapshot used as the
// memoization key. Optional fields are carried as a value plus a presence
// flag so nil and zero stay distinct. Because the type is comparable, two
// snapshots with identical content always map to the same cache slot - no
// serialization involved.
type snapshotKey struct {
	ticker       string
	price        float64
	marketCap    float64
	earningsDate string

	optionsVolume int64
	openInterest  int64

	currentIV    float64
	hasCurrentIV bool
	crushRatio   float64
	hasCrush     bool
	spreadPct    float64
	hasSpread    bool
	fallbackIV   float64
	hasFallback  bool
}

func keyFor(snap domain.TickerSnapshot) snapshotKey {
	key := snapshotKey{
		ticker:        snap.Ticker,
		price:         snap.Price,
		marketCap:     snap.MarketCap,
		earningsDate:  snap.EarningsDate,
		optionsVolume: snap.Options.OptionsVolume,
		openInterest:  snap.Options.OpenInterest,
	}

	if v := snap.Options.CurrentIV; v != nil {
		key.currentIV, key.hasCurrentIV = *v, true
	}
	if v := snap.Options.IVCrushRatio; v != nil {
		key.crushRatio, key.hasCrush = *v, true
	}
	if v := snap.Options.BidAskSpreadPct; v != nil {
		key.spreadPct, key.hasSpread = *v, true
	}
	if v := snap.IV; v != nil {
		key.fallbackIV, key.hasFallback = *v, true
	}

	return key
}
