// Package rates fetches USD→ARS quotes from DolarAPI.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
)

// Source provides the current quote for a rate type.
type Source interface {
	Get(ctx context.Context, t fx.RateType) (core.ExchangeRate, error)
}

// Client fetches quotes from DolarAPI (GET {base}/v1/dolares/{type}).
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// dolarResponse is the subset of the DolarAPI payload we consume.
type dolarResponse struct {
	Venta              float64 `json:"venta"`
	FechaActualizacion string  `json:"fechaActualizacion"`
}

func NewClient(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.WithComponent(log.ComponentRates),
	}
}

// Get fetches the selling price for the given rate type. The venta quote is
// what converting salary or expenses actually costs, so that is the one
// tracked.
func (c *Client) Get(ctx context.Context, t fx.RateType) (core.ExchangeRate, error) {
	if !t.Valid() {
		return core.ExchangeRate{}, fmt.Errorf("unknown rate type %q", t)
	}

	url := fmt.Sprintf("%s/v1/dolares/%s", c.baseURL, t)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("fetch %s rate: %w", t, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.ExchangeRate{}, fmt.Errorf("fetch %s rate: unexpected status %d", t, resp.StatusCode)
	}

	var body dolarResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("decode %s rate: %w", t, err)
	}

	c.logger.DebugContext(ctx, "fetched exchange rate",
		log.FieldRateType, string(t),
		log.FieldRate, body.Venta,
	)

	return core.ExchangeRate{
		USDToARS: body.Venta,
		Updated:  body.FechaActualizacion,
	}, nil
}
