package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
)

// HTTPFxSource pulls the latest FX table from the market-data service, which
// mirrors the NBP mid rates keyed against the pivot currency.
type HTTPFxSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFxSource builds an FxSource against the market-data base URL.
func NewHTTPFxSource(baseURL string, timeout time.Duration) FxSource {
	return &HTTPFxSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LatestRates fetches the current rate table.
func (s *HTTPFxSource) LatestRates(ctx context.Context) (Rates, error) {
	endpoint := fmt.Sprintf("%s/fx/latest", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Dependencyf("fx.latest", "market-data unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependencyf("fx.latest", "market-data returned status %d", resp.StatusCode)
	}
	rates := make(Rates)
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("failed to decode fx rates: %w", err)
	}
	return rates, nil
}
