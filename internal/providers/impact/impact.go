// Package impact orders digital gift cards through the Impact partner API.
package impact

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/providers"
	"github.com/fastprodman/coinvault/internal/providers/httpx"
)

const name = "impact"

var errNoCredentials = errors.New("account sid or auth token not configured")

type Config struct {
	AccountSID string `env:"IMPACT_ACCOUNT_SID" envDefault:""`
	AuthToken  string `env:"IMPACT_AUTH_TOKEN" envDefault:""`
	BaseURL    string `env:"IMPACT_BASE_URL" envDefault:"https://api.impact.com"`
}

var _ providers.Provider = (*Provider)(nil)

type Provider struct {
	sid    string
	auth   string
	client *httpx.Client
}

func New(cfg Config, timeout time.Duration) (*Provider, error) {
	client, err := httpx.New(cfg.BaseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("impact client: %w", err)
	}

	sid := strings.TrimSpace(cfg.AccountSID)
	token := strings.TrimSpace(cfg.AuthToken)

	p := &Provider{sid: sid, client: client}
	if sid != "" && token != "" {
		p.auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(sid+":"+token))
	}

	return p, nil
}

func (p *Provider) Name() string      { return name }
func (p *Provider) Kind() domain.Kind { return domain.KindGiftCard }

func (p *Provider) Configured() bool { return p.auth != "" }

type orderRequest struct {
	Brand          string `json:"brand"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
	ExternalID     string `json:"externalId"`
}

type orderResponse struct {
	ID        string `json:"Id"`
	Status    string `json:"Status"`
	ClaimCode string `json:"ClaimCode"`
	ClaimURL  string `json:"ClaimUrl"`
}

func (p *Provider) Reserve(ctx context.Context, req providers.Request) (providers.Fulfillment, error) {
	if !p.Configured() {
		return providers.Fulfillment{}, providers.Unavailable(name, errNoCredentials)
	}

	var resp orderResponse

	err := p.client.Do(ctx, httpx.Call{
		Method: http.MethodPost,
		Path:   []string{"Mediapartners", p.sid, "Orders"},
		Body: orderRequest{
			Brand:          req.Brand,
			Amount:         req.USD.StringFixed(2),
			Currency:       "USD",
			RecipientEmail: req.UserEmail,
			ExternalID:     req.RedemptionID,
		},
		Header: http.Header{"Authorization": {p.auth}},
	}, &resp)
	if err != nil {
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("create order: %w", err))
	}

	if resp.ID == "" {
		return providers.Fulfillment{}, providers.Unavailable(name, errors.New("order response has no id"))
	}

	details := map[string]string{"brand": req.Brand}
	if resp.Status != "" {
		details["orderStatus"] = resp.Status
	}
	if resp.ClaimURL != "" {
		details["claimUrl"] = resp.ClaimURL
	}

	return providers.Fulfillment{Reference: resp.ID, Details: details}, nil
}
