// Package notify delivers scan-completion notifications over a webhook.
// Delivery is best effort: the scan outcome is already persisted by the time
// a notification goes out, so a failure here only costs the ping.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/domain"
)

// maxHighlights bounds how many recommendations a notification carries.
const maxHighlights = 5

// WebhookNotifier posts a JSON summary of a finished scan to a configured
// webhook URL. An empty URL disables delivery without disabling the caller.
type WebhookNotifier struct {
	webhookURL string
	emailTo    string
	client     *http.Client
	log        zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(webhookURL, emailTo string, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		emailTo:    emailTo,
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        log.With().Str("component", "notifier").Logger(),
	}
}

type highlight struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
	Rationale  string  `json:"rationale,omitempty"`
}

type scanSummary struct {
	RunID           string      `json:"run_id"`
	ScanType        string      `json:"scan_type"`
	Status          string      `json:"status"`
	TotalCoins      int         `json:"total_coins"`
	Recommendations int         `json:"recommendations"`
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	EmailTo         string      `json:"email_to,omitempty"`
	Highlights      []highlight `json:"highlights"`
}

// NotifyScanComplete posts the scan summary. A missing webhook URL is a
// silent no-op.
func (n *WebhookNotifier) NotifyScanComplete(ctx context.Context, run domain.ScanRun, recs []domain.AggregatedRecommendation) error {
	if n.webhookURL == "" {
		return nil
	}

	summary := scanSummary{
		RunID:           run.ID,
		ScanType:        run.ScanType,
		Status:          run.Status,
		TotalCoins:      run.TotalCoins,
		Recommendations: len(recs),
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
		EmailTo:         n.emailTo,
	}
	for i, rec := range recs {
		if i == maxHighlights {
			break
		}
		summary.Highlights = append(summary.Highlights, highlight{
			Symbol:     rec.Symbol,
			Direction:  string(rec.ConsensusDirection),
			Confidence: rec.AvgConfidence,
			Category:   rec.Category,
			Rationale:  rec.Rationale,
		})
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.log.Info().Str("run_id", run.ID).Msg("Scan notification delivered")
	return nil
}
