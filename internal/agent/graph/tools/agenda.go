package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

const (
	// NoEventsSentinel is returned when no agenda entry is still relevant.
	NoEventsSentinel = "No hay eventos próximos."

	DefaultAgendaURL     = "https://www.nmb.es/content/getAgendaContent"
	DefaultAgendaTimeout = 10 * time.Second

	agendaDateLayout = "2006-01-02"
	maxAgendaBody    = 2 * 1024 * 1024
)

var firstNumber = regexp.MustCompile(`\d+`)

// AgendaEvent is one entry of the remote taxpayer agenda.
type AgendaEvent struct {
	Title     string `json:"title"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Content   string `json:"content"`
}

type agendaResponse struct {
	Data []AgendaEvent `json:"data"`
}

// AgendaClient fetches the taxpayer calendar for the current month.
type AgendaClient struct {
	url    string
	client *http.Client
	now    func() time.Time
	loc    *time.Location
}

type AgendaOption func(*AgendaClient)

// WithAgendaHTTPClient replaces the default bounded-timeout client.
func WithAgendaHTTPClient(c *http.Client) AgendaOption {
	return func(a *AgendaClient) { a.client = c }
}

// WithClock injects the time source used for the date window and expiry rules.
func WithClock(now func() time.Time) AgendaOption {
	return func(a *AgendaClient) { a.now = now }
}

// WithLocation sets the timezone agenda dates are interpreted in.
func WithLocation(loc *time.Location) AgendaOption {
	return func(a *AgendaClient) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func NewAgendaClient(endpoint string, timeout time.Duration, opts ...AgendaOption) *AgendaClient {
	if endpoint == "" {
		endpoint = DefaultAgendaURL
	}
	if timeout <= 0 {
		timeout = DefaultAgendaTimeout
	}
	a := &AgendaClient{
		url:    endpoint,
		client: newHTTPClient(timeout),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Events implements model.CalendarSource.
func (a *AgendaClient) Events(ctx context.Context) (string, error) {
	now := a.now().In(a.loc)
	start, end := agendaWindow(now)
	logx.Info().Str("date_start", start).Str("date_end", end).Msg("Consulting taxpayer calendar")

	form := url.Values{"dateStart": {start}, "dateEnd": {end}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build agenda request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", errx.WrapUpstream("agenda", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", errx.WrapUpstream("agenda", fmt.Errorf("%w %d", errx.ErrUpstreamStatus, resp.StatusCode))
	}

	var payload agendaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAgendaBody)).Decode(&payload); err != nil {
		return "", errx.WrapUpstream("agenda", fmt.Errorf("decode response: %w", err))
	}

	events := FilterEvents(payload.Data, now)
	logx.Debug().Int("received", len(payload.Data)).Int("kept", len(events)).Msg("Agenda events filtered")
	return FormatEvents(events), nil
}

// agendaWindow returns today and the last day of the current month.
func agendaWindow(now time.Time) (string, string) {
	firstOfNext := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return now.Format(agendaDateLayout), firstOfNext.AddDate(0, 0, -1).Format(agendaDateLayout)
}

// FilterEvents keeps events that have not expired. An end date counts from
// its midnight, so an event ending today is already gone; titles reading
// "hasta N" expire once the current day of month is past N.
func FilterEvents(events []AgendaEvent, now time.Time) []AgendaEvent {
	kept := make([]AgendaEvent, 0, len(events))
	for _, e := range events {
		if e.DateEnd != "" {
			endDay, err := time.ParseInLocation(agendaDateLayout, e.DateEnd, now.Location())
			if err != nil {
				logx.Warn().Err(err).Str("title", e.Title).Msg("Unparseable agenda end date, keeping event")
			} else if !endDay.After(now) {
				continue
			}
		}
		if untilDayPassed(e.Title, now) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func untilDayPassed(title string, now time.Time) bool {
	lower := strings.ToLower(title)
	if !strings.Contains(lower, "hasta") {
		return false
	}
	m := firstNumber.FindString(lower)
	if m == "" {
		return false
	}
	day, err := strconv.Atoi(m)
	if err != nil {
		return false
	}
	return day < now.Day()
}

// FormatEvents renders events one per paragraph, or NoEventsSentinel.
func FormatEvents(events []AgendaEvent) string {
	if len(events) == 0 {
		return NoEventsSentinel
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("📌 %s (Fecha Inicio: %s - Fecha Fin: %s): %s",
			e.Title, e.DateStart, e.DateEnd, StripMarkup(e.Content)))
	}
	return strings.Join(lines, "\n\n")
}
