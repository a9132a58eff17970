// Package exchange is the client for the external exchange provider's
// recent-deposit API. Requests are signed HMAC-SHA256 over the query string,
// provider style; responses are typed deposit events.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client looks up recent deposits on the provider.
type Client interface {
	// RecentDeposits returns deposit events inserted after sinceMs.
	RecentDeposits(ctx context.Context, sinceMs int64) ([]DepositEvent, error)
	// FindDeposit locates one event by provider transaction id within the
	// lookback window, or nil if the provider has not seen it.
	FindDeposit(ctx context.Context, txID string) (*DepositEvent, error)
}

// Config holds provider connection settings.
type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	// Lookback bounds FindDeposit's search window.
	Lookback time.Duration
	Timeout  time.Duration
}

type client struct {
	http     *resty.Client
	apiKey   string
	secret   string
	lookback time.Duration
}

// NewClient creates a provider client.
func NewClient(cfg Config) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	return &client{
		http:     resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		apiKey:   cfg.APIKey,
		secret:   cfg.SecretKey,
		lookback: cfg.Lookback,
	}
}

func (c *client) RecentDeposits(ctx context.Context, sinceMs int64) ([]DepositEvent, error) {
	params := url.Values{}
	params.Set("startTime", strconv.FormatInt(sinceMs, 10))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	var events []DepositEvent
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.apiKey).
		SetQueryString(query).
		SetResult(&events).
		Get("/v1/capital/deposits")
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("provider returned %s: %s", resp.Status(), resp.String())
	}
	return events, nil
}

func (c *client) FindDeposit(ctx context.Context, txID string) (*DepositEvent, error) {
	since := time.Now().Add(-c.lookback).UnixMilli()
	events, err := c.RecentDeposits(ctx, since)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].TxID == txID {
			return &events[i], nil
		}
	}
	return nil, nil
}

// sign computes the hex HMAC-SHA256 of the query string.
func (c *client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
