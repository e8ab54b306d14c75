package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Gateway talks to the brokerage gateway service over HTTP.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	dryRun     bool
}

func NewGateway(baseURL string, dryRun bool) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		dryRun:  dryRun,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *Gateway) History(ctx context.Context, symbol string, days int) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/history?symbol=%s&days=%d", g.baseURL, url.QueryEscape(symbol), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed (status %d)", resp.StatusCode)
	}

	var result struct {
		Closes []float64 `json:"closes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Closes, nil
}

func (g *Gateway) Quote(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", g.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote request failed (status %d)", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return Quote{}, err
	}

	return quote, nil
}

func (g *Gateway) SetHoldings(ctx context.Context, symbol string, weight float64) error {
	payload := map[string]interface{}{
		"symbol":  symbol,
		"weight":  weight,
		"confirm": !g.dryRun,
	}

	result, err := g.post(ctx, "/holdings", payload)
	if err != nil {
		return err
	}

	log.Info().
		Str("symbol", symbol).
		Float64("weight", weight).
		Interface("result", result).
		Msg("Holdings target placed")

	return nil
}

func (g *Gateway) Liquidate(ctx context.Context, symbol string) error {
	payload := map[string]interface{}{
		"symbol":  symbol,
		"confirm": !g.dryRun,
	}

	result, err := g.post(ctx, "/liquidate", payload)
	if err != nil {
		return err
	}

	log.Info().
		Str("symbol", symbol).
		Interface("result", result).
		Msg("Position liquidated")

	return nil
}

func (g *Gateway) post(ctx context.Context, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+path,
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("order failed (status %d): %v", resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result, nil
}
