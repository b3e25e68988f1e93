// Package coinbase buys and sends crypto through the Coinbase v2 API.
//
// A reservation is two calls: the spot price for SYMBOL-USD, then a send
// transaction for USD/spot units to the user's wallet.
package coinbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/providers"
	"github.com/fastprodman/coinvault/internal/providers/httpx"
	"github.com/shopspring/decimal"
)

const (
	name = "coinbase"

	// QuantityPlaces is the precision of the crypto amount sent.
	QuantityPlaces = 8
)

var errNoCredentials = errors.New("api key or account id not configured")

type Config struct {
	APIKey    string `env:"COINBASE_API_KEY" envDefault:""`
	AccountID string `env:"COINBASE_ACCOUNT_ID" envDefault:""`
	BaseURL   string `env:"COINBASE_BASE_URL" envDefault:"https://api.coinbase.com"`
}

var _ providers.Provider = (*Provider)(nil)

type Provider struct {
	apiKey  string
	account string
	client  *httpx.Client
}

func New(cfg Config, timeout time.Duration) (*Provider, error) {
	client, err := httpx.New(cfg.BaseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("coinbase client: %w", err)
	}

	return &Provider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		account: strings.TrimSpace(cfg.AccountID),
		client:  client,
	}, nil
}

func (p *Provider) Name() string      { return name }
func (p *Provider) Kind() domain.Kind { return domain.KindCrypto }

func (p *Provider) Configured() bool { return p.apiKey != "" && p.account != "" }

type spotResponse struct {
	Data struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

type sendRequest struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Idem     string `json:"idem"`
}

type sendResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// SpotPrice returns the current USD price of one unit of symbol.
func (p *Provider) SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var resp spotResponse

	err := p.client.Do(ctx, httpx.Call{
		Method: http.MethodGet,
		Path:   []string{"v2", "prices", strings.ToUpper(symbol) + "-USD", "spot"},
		Header: p.authHeader(),
	}, &resp)
	if err != nil {
		return decimal.Zero, providers.Unavailable(name, fmt.Errorf("spot price %s: %w", symbol, err))
	}

	if !resp.Data.Amount.IsPositive() {
		return decimal.Zero, providers.Unavailable(name, fmt.Errorf("spot price %s: non-positive amount %s", symbol, resp.Data.Amount))
	}

	return resp.Data.Amount, nil
}

func (p *Provider) Reserve(ctx context.Context, req providers.Request) (providers.Fulfillment, error) {
	if !p.Configured() {
		return providers.Fulfillment{}, providers.Unavailable(name, errNoCredentials)
	}

	symbol := strings.ToUpper(req.Symbol)

	spot, err := p.SpotPrice(ctx, symbol)
	if err != nil {
		return providers.Fulfillment{}, err
	}

	qty := req.USD.DivRound(spot, QuantityPlaces)
	if !qty.IsPositive() {
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("amount %s %s rounds to zero", req.USD, symbol))
	}

	var resp sendResponse

	err = p.client.Do(ctx, httpx.Call{
		Method: http.MethodPost,
		Path:   []string{"v2", "accounts", p.account, "transactions"},
		Body: sendRequest{
			Type:     "send",
			To:       req.WalletAddress,
			Amount:   qty.String(),
			Currency: symbol,
			Idem:     req.RedemptionID,
		},
		Header: p.authHeader(),
	}, &resp)
	if err != nil {
		return providers.Fulfillment{}, providers.Unavailable(name, fmt.Errorf("send %s: %w", symbol, err))
	}

	if resp.Data.ID == "" {
		return providers.Fulfillment{}, providers.Unavailable(name, errors.New("send response has no id"))
	}

	return providers.Fulfillment{
		Reference: resp.Data.ID,
		Details:   map[string]string{"txStatus": resp.Data.Status},
		SpotPrice: spot,
		Quantity:  qty,
	}, nil
}

func (p *Provider) authHeader() http.Header {
	return http.Header{"Authorization": {"Bearer " + p.apiKey}}
}
