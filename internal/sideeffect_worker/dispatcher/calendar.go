package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// CalendarClient calls the internal calendar API to create consultation
// events after a booking is paid.
type CalendarClient struct {
	baseURL       string
	calendarEmail string
	timezone      string
	location      *time.Location
	timeout       time.Duration
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewCalendarClient creates a calendar client from configuration
func NewCalendarClient(logger *slog.Logger, cfg *config.CalendarConfig) (*CalendarClient, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", cfg.Timezone, err)
	}

	return &CalendarClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		calendarEmail: cfg.CalendarEmail,
		timezone:      cfg.Timezone,
		location:      location,
		timeout:       cfg.Timeout,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}, nil
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventAttendee struct {
	Email string `json:"email"`
}

type reminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type eventReminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []reminderOverride `json:"overrides"`
}

type calendarEvent struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Start       eventDateTime   `json:"start"`
	End         eventDateTime   `json:"end"`
	Attendees   []eventAttendee `json:"attendees,omitempty"`
	Reminders   eventReminders  `json:"reminders"`
}

type createEventRequest struct {
	CalendarEmail string        `json:"calendarEmail"`
	Event         calendarEvent `json:"event"`
}

type createEventResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId"`
}

// CreateEvent creates the consultation event and returns its identifier
func (c *CalendarClient) CreateEvent(ctx context.Context, event *reconciliation.SettlementEvent) (string, error) {
	start, end, err := c.eventWindow(event)
	if err != nil {
		return "", err
	}

	payload := createEventRequest{
		CalendarEmail: c.calendarEmail,
		Event: calendarEvent{
			Summary:     fmt.Sprintf("Tư vấn: %s - %s", event.ClientName, event.ServiceType),
			Description: c.eventDescription(event),
			Start:       eventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.timezone},
			End:         eventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.timezone},
			Attendees:   []eventAttendee{{Email: event.ClientEmail}},
			Reminders: eventReminders{
				UseDefault: false,
				Overrides: []reminderOverride{
					{Method: "email", Minutes: 60},
					{Method: "popup", Minutes: 30},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal calendar event: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/api/google/calendar/create-event", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar API returned status %d", resp.StatusCode)
	}

	var result createEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode calendar response: %w", err)
	}
	if result.EventID == "" {
		return "", fmt.Errorf("calendar API returned no event id")
	}

	return result.EventID, nil
}

// eventWindow computes the event start and end from the booking slot and
// the service duration.
func (c *CalendarClient) eventWindow(event *reconciliation.SettlementEvent) (time.Time, time.Time, error) {
	startTime := event.StartTime
	if len(startTime) == 5 { // HH:MM
		startTime += ":00"
	}

	start, err := time.ParseInLocation("2006-01-02 15:04:05", event.BookingDate+" "+startTime, c.location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid booking slot %q %q: %w", event.BookingDate, event.StartTime, err)
	}

	return start, start.Add(event.ServiceType.Duration()), nil
}

// eventDescription renders the event body shown to the consultant
func (c *CalendarClient) eventDescription(event *reconciliation.SettlementEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Khách hàng: %s\n", event.ClientName)
	fmt.Fprintf(&sb, "Email: %s\n", event.ClientEmail)
	if event.ClientPhone != "" {
		fmt.Fprintf(&sb, "SĐT: %s\n", event.ClientPhone)
	}
	fmt.Fprintf(&sb, "Dịch vụ: %s\n", event.ServiceType)
	fmt.Fprintf(&sb, "Mã giao dịch: %s\n", event.TransactionID)
	if event.Notes != "" {
		fmt.Fprintf(&sb, "Ghi chú: %s\n", event.Notes)
	}
	return sb.String()
}
