// Package sentiment is the client for the external enrichment service that
// backs the selective second pass: per-coin market sentiment scoring and
// LLM-based rationale synthesis. Both calls are slow and metered, which is
// why only the top candidates of a scan ever reach them.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// Client talks to the enrichment service. It implements both the sentiment
// analysis and the rationale synthesis collaborator interfaces.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates an enrichment client.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     log.With().Str("client", "sentiment").Logger(),
	}
}

// AnalyzeMarketSentiment scores the current market sentiment for one coin.
func (c *Client) AnalyzeMarketSentiment(ctx context.Context, symbol, name string, price float64) (*domain.SentimentData, error) {
	payload := map[string]any{
		"symbol": symbol,
		"name":   name,
		"price":  price,
	}

	var result struct {
		Score    float64            `json:"score"`
		Text     string             `json:"text"`
		Features map[string]float64 `json:"features"`
	}
	if err := c.postJSON(ctx, "/v1/sentiment", payload, &result); err != nil {
		return nil, fmt.Errorf("sentiment request for %s failed: %w", symbol, err)
	}

	if result.Score < -1 || result.Score > 1 {
		return nil, fmt.Errorf("sentiment score %f for %s out of range", result.Score, symbol)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("score", result.Score).
		Msg("Sentiment analyzed")

	return &domain.SentimentData{
		Score:    result.Score,
		Text:     result.Text,
		Features: result.Features,
	}, nil
}

// SynthesizeRecommendation asks the service's LLM backend for a narrative
// rationale covering the consensus and its strongest signals.
func (c *Client) SynthesizeRecommendation(ctx context.Context, rec domain.AggregatedRecommendation, results []domain.StrategyResult, features domain.FeatureMap) (string, error) {
	signals := make([]map[string]any, 0, len(results))
	for _, r := range results {
		signals = append(signals, map[string]any{
			"bot":        r.BotName,
			"direction":  string(r.Direction),
			"confidence": r.Confidence,
			"rationale":  r.Rationale,
		})
	}

	payload := map[string]any{
		"symbol":     rec.Symbol,
		"name":       rec.Name,
		"direction":  string(rec.ConsensusDirection),
		"confidence": rec.AvgConfidence,
		"bot_count":  rec.BotCount,
		"signals":    signals,
		"features":   features,
	}

	var result struct {
		Rationale string `json:"rationale"`
	}
	if err := c.postJSON(ctx, "/v1/synthesize", payload, &result); err != nil {
		return "", fmt.Errorf("synthesis request for %s failed: %w", rec.Symbol, err)
	}
	if result.Rationale == "" {
		return "", fmt.Errorf("empty rationale for %s", rec.Symbol)
	}

	return result.Rationale, nil
}

// postJSON performs a POST request with a JSON body and decodes the JSON
// response.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
