package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/ports"
)

// Client implements ports.PriceSource against the price HTTP API.
// The API is unauthenticated, eventually consistent and occasionally
// unavailable; callers poll and tolerate failures.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) GetQuote(ctx context.Context, assetID string) (ports.Quote, error) {
	var out struct {
		Price          float64 `json:"price"`
		PriceChange24h float64 `json:"price_change_24h"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/price/%s", assetID))
	if err != nil {
		return ports.Quote{}, errors.Wrapf(err, "pricefeed: fetch %s", assetID)
	}
	if resp.IsError() {
		return ports.Quote{}, errors.Errorf("pricefeed: fetch %s: http %d", assetID, resp.StatusCode())
	}
	return ports.Quote{
		AssetID:   assetID,
		Price:     out.Price,
		Change24h: out.PriceChange24h,
		FetchedAt: time.Now(),
	}, nil
}
