package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ardentia/internal/domain"
)

// Notifier posts deposit notifications to a Discord webhook as rich embeds.
// With no webhook URL configured it silently does nothing, so the deposit
// workflow works the same in development.
type Notifier struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
	Footer    embedFooter  `json:"footer"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Embed colors for the deposit states.
const (
	colorPending  = 0xFFAA00
	colorApproved = 0x00FF00
)

// NewNotifier creates a new Notifier
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyDeposit posts a deposit embed to the webhook. New requests and
// approvals use different titles and colors, mirroring the community bot's
// message format.
func (n *Notifier) NotifyDeposit(deposit *domain.DepositRequest) error {
	if !n.enabled {
		return nil // Silently skip if the webhook is not configured
	}

	title := "💰 New Deposit Request"
	color := colorPending
	if deposit.Status == domain.DepositApproved {
		title = "✅ Deposit Approved"
		color = colorApproved
	}

	payload := webhookPayload{
		Embeds: []embed{{
			Title: title,
			Color: color,
			Fields: []embedField{
				{Name: "Player", Value: deposit.Username, Inline: true},
				{Name: "Amount", Value: fmt.Sprintf("%s AC", deposit.Amount.StringFixed(0)), Inline: true},
				{Name: "Method", Value: deposit.Method, Inline: true},
				{Name: "Status", Value: deposit.Status, Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Footer:    embedFooter{Text: fmt.Sprintf("Deposit ID: %s", deposit.ID)},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
