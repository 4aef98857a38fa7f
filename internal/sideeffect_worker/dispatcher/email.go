package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// Email templates rendered by the sending service
const (
	templatePaymentConfirmed      = "paymentConfirmed"
	templateAdminPaymentConfirmed = "adminPaymentConfirmed"
)

// EmailClient calls the transactional email service to send settlement
// notifications to the client and the admin.
type EmailClient struct {
	baseURL    string
	apiKey     string
	adminEmail string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewEmailClient creates an email client from configuration
func NewEmailClient(logger *slog.Logger, cfg *config.EmailConfig) *EmailClient {
	return &EmailClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		adminEmail: cfg.AdminEmail,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type sendEmailRequest struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

// SendPaymentConfirmed notifies the client that the consultation is booked
func (c *EmailClient) SendPaymentConfirmed(ctx context.Context, event *reconciliation.SettlementEvent) error {
	return c.send(ctx, sendEmailRequest{
		To:       event.ClientEmail,
		Template: templatePaymentConfirmed,
		Data: map[string]string{
			"name": event.ClientName,
			"date": event.BookingDate,
			"time": event.StartTime,
			"type": string(event.ServiceType),
		},
	})
}

// SendAdminPaymentConfirmed notifies the admin about the incoming payment
func (c *EmailClient) SendAdminPaymentConfirmed(ctx context.Context, event *reconciliation.SettlementEvent) error {
	return c.send(ctx, sendEmailRequest{
		To:       c.adminEmail,
		Template: templateAdminPaymentConfirmed,
		Data: map[string]string{
			"name":   event.ClientName,
			"email":  event.ClientEmail,
			"date":   event.BookingDate,
			"time":   event.StartTime,
			"type":   string(event.ServiceType),
			"amount": formatAmount(event.Amount),
		},
	})
}

func (c *EmailClient) send(ctx context.Context, payload sendEmailRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/functions/v1/send-email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d for template %s", resp.StatusCode, payload.Template)
	}

	return nil
}

// formatAmount renders whole currency units with Vietnamese thousands
// separators, e.g. 499000 -> "499.000 VND".
func formatAmount(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
	}

	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(d)
	}

	formatted := sb.String()
	if negative {
		formatted = "-" + formatted
	}
	return formatted + " VND"
}
