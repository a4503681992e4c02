package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
)

// HTTPQuoteSource talks to the market-data service over HTTP. Failures
// degrade to missing quotes at the caller; the request itself never aborts
// a valuation.
type HTTPQuoteSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPQuoteSource builds a QuoteSource against the market-data base URL.
func NewHTTPQuoteSource(baseURL string, timeout time.Duration) QuoteSource {
	return &HTTPQuoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetLatestQuotesForSymbols fetches one batch of latest quotes. At most one
// entry per symbol comes back; missing symbols are silently omitted.
func (s *HTTPQuoteSource) GetLatestQuotesForSymbols(ctx context.Context, symbols []string) (Quotes, error) {
	if len(symbols) == 0 {
		return Quotes{}, nil
	}
	endpoint := fmt.Sprintf("%s/quotes/latest?symbols=%s", s.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Dependencyf("quotes.latest", "market-data unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependencyf("quotes.latest", "market-data returned status %d", resp.StatusCode)
	}

	quotes := make(Quotes)
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	return quotes, nil
}

// SyncDailyCandles asks the market-data service to pull daily candles for a
// symbol.
func (s *HTTPQuoteSource) SyncDailyCandles(ctx context.Context, symbol string, from, to *time.Time) error {
	q := url.Values{"symbol": {symbol}}
	if from != nil {
		q.Set("from", from.Format("2006-01-02"))
	}
	if to != nil {
		q.Set("to", to.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/candles/sync?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.Dependencyf("quotes.sync", "market-data unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return apperrors.Dependencyf("quotes.sync", "market-data returned status %d", resp.StatusCode)
	}
	return nil
}

// ListInstruments lists the instruments trading on one MIC.
func (s *HTTPQuoteSource) ListInstruments(ctx context.Context, mic string) ([]models.Instrument, error) {
	endpoint := fmt.Sprintf("%s/instruments?mic=%s", s.baseURL, url.QueryEscape(mic))
	return s.fetchInstruments(ctx, endpoint)
}

// SearchInstrumentByShortname searches the instrument catalog by name.
func (s *HTTPQuoteSource) SearchInstrumentByShortname(ctx context.Context, name string) ([]models.Instrument, error) {
	endpoint := fmt.Sprintf("%s/instruments/search?q=%s", s.baseURL, url.QueryEscape(name))
	return s.fetchInstruments(ctx, endpoint)
}

func (s *HTTPQuoteSource) fetchInstruments(ctx context.Context, endpoint string) ([]models.Instrument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Dependencyf("quotes.instruments", "market-data unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependencyf("quotes.instruments", "market-data returned status %d", resp.StatusCode)
	}
	var instruments []models.Instrument
	if err := json.NewDecoder(resp.Body).Decode(&instruments); err != nil {
		return nil, fmt.Errorf("failed to decode instruments: %w", err)
	}
	return instruments, nil
}
