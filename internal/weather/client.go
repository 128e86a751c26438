package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/swelljoe/wthr-daily/internal/config"
)

const (
	// DefaultBaseURL is the Open-Meteo forecast endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	// Timezone is the only timezone daily values are requested in.
	Timezone = "Europe/London"
	// dateLayout matches the value of an HTML date input.
	dateLayout = "2006-01-02"
	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 1 << 20
)

// DailyMetrics is the fixed list of requested daily aggregates.
var DailyMetrics = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"wind_speed_10m_max",
	"sunrise",
	"sunset",
	"weathercode",
}

// Client handles forecast API interactions
type Client struct {
	BaseURL    string
	UserAgent  string
	HonorDate  bool
	HTTPClient *http.Client
}

// NewClient creates a forecast client from configuration
func NewClient(cfg config.ForecastConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		BaseURL:   baseURL,
		UserAgent: cfg.UserAgent,
		HonorDate: cfg.HonorDate,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DailyForecast issues one GET for the daily aggregates at the queried
// coordinates. Every failure is a *FetchError.
func (c *Client) DailyForecast(ctx context.Context, q Query) (*ForecastResult, error) {
	requestURL, err := c.forecastURL(q)
	if err != nil {
		return nil, &FetchError{Stage: StageRequest, Err: err}
	}

	data, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var fr ForecastResult
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, &FetchError{Stage: StageDecode, Err: err}
	}

	if err := validateResult(&fr, data); err != nil {
		return nil, &FetchError{Stage: StageSchema, Err: err}
	}

	return &fr, nil
}

// forecastURL builds the request URL for q.
func (c *Client) forecastURL(q Query) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast url: %w", err)
	}

	params := base.Query()
	params.Set("latitude", q.Latitude)
	params.Set("longitude", q.Longitude)
	params.Set("daily", strings.Join(DailyMetrics, ","))
	params.Set("timezone", Timezone)

	if c.HonorDate {
		day, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", q.Date, err)
		}
		params.Set("start_date", day.Format(dateLayout))
		params.Set("end_date", day.Format(dateLayout))
	}

	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FetchError{Stage: StageRequest, Err: err}
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Stage: StageTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Stage:      StageStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("forecast API error: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Stage: StageTransport, StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}
