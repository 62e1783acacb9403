// Package tradier is a minimal Tradier market-data client covering the
// endpoints the scanner needs: stock quotes, option expirations and option
// chains with greeks.
package tradier

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.tradier.com"

// Client is a Tradier API client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Tradier client. An empty baseURL uses production.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "tradier").Logger(),
	}
}

// GetQuote fetches the current quote for a ticker.
func (c *Client) GetQuote(ticker string) (*Quote, error) {
	params := url.Values{}
	params.Add("symbols", ticker)

	var result quotesResponse
	if err := c.get("/v1/markets/quotes", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}

	if len(result.Quotes.Quote) == 0 {
		return nil, fmt.Errorf("no quote data returned for %s", ticker)
	}

	return &result.Quotes.Quote[0], nil
}

// GetExpirations fetches the option expiration dates for a ticker,
// soonest first, as YYYY-MM-DD strings.
func (c *Client) GetExpirations(ticker string) ([]string, error) {
	params := url.Values{}
	params.Add("symbol", ticker)

	var result expirationsResponse
	if err := c.get("/v1/markets/options/expirations", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch expirations for %s: %w", ticker, err)
	}

	return result.Expirations.Date, nil
}

// GetOptionsData fetches the chain for one expiration and condenses it into
// the snapshot aggregates: ATM implied move, ATM IV and spread, and
// chain-wide volume and open interest. spot is the underlying price used to
// locate the ATM strike.
func (c *Client) GetOptionsData(ticker, expiration string, spot float64) (*OptionsData, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("invalid spot price %v for %s", spot, ticker)
	}

	params := url.Values{}
	params.Add("symbol", ticker)
	params.Add("expiration", expiration)
	params.Add("greeks", "true")

	var result chainsResponse
	if err := c.get("/v1/markets/options/chains", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch chain for %s %s: %w", ticker, expiration, err)
	}

	chain := result.Options.Option
	if len(chain) == 0 {
		return nil, fmt.Errorf("empty option chain for %s %s", ticker, expiration)
	}

	data := &OptionsData{Expiration: expiration}
	for _, opt := range chain {
		data.TotalVolume += opt.Volume
		data.TotalOpenInterest += opt.OpenInterest
	}

	atmCall, atmPut := findATMPair(chain, spot)
	if atmCall == nil || atmPut == nil {
		c.log.Debug().Str("ticker", ticker).Str("expiration", expiration).
			Msg("no complete ATM straddle in chain")
		return data, nil
	}

	callMid := mid(atmCall.Bid, atmCall.Ask)
	putMid := mid(atmPut.Bid, atmPut.Ask)
	if callMid > 0 && putMid > 0 {
		implied := (callMid + putMid) / spot * 100
		data.ImpliedMovePct = &implied

		spread := ((atmCall.Ask - atmCall.Bid) + (atmPut.Ask - atmPut.Bid)) / (callMid + putMid)
		data.BidAskSpreadPct = &spread
	}

	if atmCall.Greeks != nil && atmPut.Greeks != nil {
		iv := (atmCall.Greeks.MidIV + atmPut.Greeks.MidIV) / 2 * 100
		if iv > 0 {
			data.CurrentIV = &iv
		}
	}

	return data, nil
}

// findATMPair returns the call and put at the strike closest to spot.
// Either may be nil when that side is missing from the chain.
func findATMPair(chain []chainOption, spot float64) (call, put *chainOption) {
	bestStrike := 0.0
	bestDist := math.Inf(1)
	for _, opt := range chain {
		if d := math.Abs(opt.Strike - spot); d < bestDist {
			bestDist = d
			bestStrike = opt.Strike
		}
	}

	for i := range chain {
		if chain[i].Strike != bestStrike {
			continue
		}
		switch chain[i].OptionType {
		case "call":
			call = &chain[i]
		case "put":
			put = &chain[i]
		}
	}
	return call, put
}

func mid(bid, ask float64) float64 {
	if bid <= 0 || ask <= 0 || ask < bid {
		return 0
	}
	return (bid + ask) / 2
}

func (c *Client) get(path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Tradier API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// quoteList tolerates Tradier's habit of returning a bare object for a
// single quote and an array for several.
type quoteList []Quote

func (q *quoteList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]Quote)(q))
	}
	var single Quote
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*q = quoteList{single}
	return nil
}
