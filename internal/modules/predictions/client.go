// Package predictions integrates the external move-magnitude regression
// service. The service is optional; the scanner works without it.
package predictions

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
)

// Client calls the magnitude predictor service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a predictor client for the given service URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("client", "predictor").Logger(),
	}
}

// Predict asks the service for a move-magnitude estimate. A 404 means the
// model has no estimate for this ticker and returns (nil, nil).
func (c *Client) Predict(ticker string, earningsDate time.Time) (*domain.MovePrediction, error) {
	params := url.Values{}
	params.Add("ticker", ticker)
	params.Add("earnings_date", earningsDate.Format("2006-01-02"))

	reqURL := c.baseURL + "/predict?" + params.Encode()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("predictor returned status %d: %s", resp.StatusCode, string(body))
	}

	var prediction domain.MovePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}

	return &prediction, nil
}
