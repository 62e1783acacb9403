// Package alphavantage fetches the upcoming earnings calendar from the
// Alpha Vantage CSV endpoint.
package alphavantage

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://www.alphavantage.co"

// EarningsEvent is one upcoming earnings report.
type EarningsEvent struct {
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	ReportDate string `json:"report_date"` // YYYY-MM-DD
}

// Client is an Alpha Vantage API client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Alpha Vantage client. An empty baseURL uses
// production.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log.With().Str("client", "alphavantage").Logger(),
	}
}

// GetEarningsCalendar fetches all earnings reports scheduled in the next
// three months, soonest first. The endpoint returns CSV with a header row:
// symbol,name,reportDate,fiscalDateEnding,estimate,currency.
func (c *Client) GetEarningsCalendar() ([]EarningsEvent, error) {
	params := url.Values{}
	params.Add("function", "EARNINGS_CALENDAR")
	params.Add("horizon", "3month")
	params.Add("apikey", c.apiKey)

	reqURL := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Alpha Vantage API returned status %d: %s", resp.StatusCode, string(body))
	}

	events, err := parseCalendar(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Info().Int("count", len(events)).Msg("Fetched earnings calendar")
	return events, nil
}

// GetEarningsInWindow filters the calendar down to reports within the next
// daysAhead calendar days from today.
func (c *Client) GetEarningsInWindow(daysAhead int) ([]EarningsEvent, error) {
	events, err := c.GetEarningsCalendar()
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	cutoff := time.Now().AddDate(0, 0, daysAhead).Format("2006-01-02")

	var filtered []EarningsEvent
	for _, e := range events {
		if e.ReportDate >= today && e.ReportDate <= cutoff {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func parseCalendar(r io.Reader) ([]EarningsEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // the feed occasionally pads rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar CSV: %w", err)
	}

	var events []EarningsEvent
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) < 3 || rec[0] == "" || rec[2] == "" {
			continue
		}
		events = append(events, EarningsEvent{
			Ticker:     rec[0],
			Name:       rec[1],
			ReportDate: rec[2],
		})
	}

	return events, nil
}
