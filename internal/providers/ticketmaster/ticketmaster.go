// Package ticketmaster reserves event tickets against the Discovery API.
// A reservation succeeds when the event exists and is on sale.
package ticketmaster

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/providers"
	"github.com/fastprodman/coinvault/internal/providers/httpx"
)

const name = "ticketmaster"

var errNoAPIKey = errors.New("api key not configured")

type Config struct {
	APIKey  string `env:"TICKETMASTER_API_KEY" envDefault:""`
	BaseURL string `env:"TICKETMASTER_BASE_URL" envDefault:"https://app.ticketmaster.com"`
}

var _ providers.Provider = (*Provider)(nil)

type Provider struct {
	apiKey string
	client *httpx.Client
}

func New(cfg Config, timeout time.Duration) (*Provider, error) {
	client, err := httpx.New(cfg.BaseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("ticketmaster client: %w", err)
	}

	return &Provider{apiKey: strings.TrimSpace(cfg.APIKey), client: client}, nil
}

func (p *Provider) Name() string      { return name }
func (p *Provider) Kind() domain.Kind { return domain.KindTicket }

// Configured reports whether an API key is set.
func (p *Provider) Configured() bool { return p.apiKey != "" }

type event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
		} `json:"start"`
		Status struct {
			Code string `json:"code"`
		} `json:"status"`
	} `json:"dates"`
}

func (p *Provider) Reserve(ctx context.Context, req providers.Request) (providers.Fulfillment, error) {
	if !p.Configured() {
		return providers.Fulfillment{}, providers.Unavailable(name, errNoAPIKey)
	}

	var ev event

	err := p.client.Do(ctx, httpx.Call{
		Method: "GET",
		Path:   []string{"discovery", "v2", "events", req.EventID + ".json"},
		Query:  url.Values{"apikey": {p.apiKey}},
	}, &ev)
	if err != nil {
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("lookup event %s: %w", req.EventID, err))
	}

	if ev.ID == "" {
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("event %s not found", req.EventID))
	}

	switch code := ev.Dates.Status.Code; code {
	case "", "onsale":
	default:
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("event %s not on sale: %s", ev.ID, code))
	}

	eventName := ev.Name
	if eventName == "" {
		eventName = req.EventName
	}

	return providers.Fulfillment{
		Reference: "tm_" + ev.ID,
		Details: map[string]string{
			"eventName": eventName,
			"eventUrl":  ev.URL,
			"eventDate": ev.Dates.Start.LocalDate,
		},
	}, nil
}
