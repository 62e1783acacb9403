package tradier

// Quote is the underlying stock quote used to build a ticker snapshot.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	PrevClose float64 `json:"prevclose"`
	Volume    int64   `json:"volume"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// OptionsData is the aggregated view of one expiration's option chain.
type OptionsData struct {
	Expiration string `json:"expiration"`

	// ImpliedMovePct is the ATM straddle cost as a percent of spot, the
	// market's priced-in earnings move. Nil when no usable ATM quotes.
	ImpliedMovePct *float64 `json:"implied_move_pct,omitempty"`

	// CurrentIV is the ATM implied volatility in percent, averaged over
	// the call and put. Nil when greeks are missing.
	CurrentIV *float64 `json:"current_iv,omitempty"`

	// BidAskSpreadPct is the ATM spread as a fraction of mid.
	BidAskSpreadPct *float64 `json:"bid_ask_spread_pct,omitempty"`

	// TotalVolume and TotalOpenInterest aggregate the whole chain.
	TotalVolume       int64 `json:"total_volume"`
	TotalOpenInterest int64 `json:"total_open_interest"`
}

type quotesResponse struct {
	Quotes struct {
		Quote quoteList `json:"quote"`
	} `json:"quotes"`
}

type expirationsResponse struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type chainsResponse struct {
	Options struct {
		Option []chainOption `json:"option"`
	} `json:"options"`
}

type chainOption struct {
	Strike       float64 `json:"strike"`
	OptionType   string  `json:"option_type"` // "call" or "put"
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	Greeks       *struct {
		MidIV float64 `json:"mid_iv"`
	} `json:"greeks,omitempty"`
}
