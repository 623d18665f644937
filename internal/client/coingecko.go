package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko client
func NewCoinGeckoClient() *CoinGeckoClient {
	return NewCoinGeckoClientWithBaseURL(coingeckoAPI)
}

// NewCoinGeckoClientWithBaseURL creates a CoinGecko client against another API root
func NewCoinGeckoClientWithBaseURL(baseURL string) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PriceResponse response from CoinGecko simple/price: coin id -> currency -> price
type PriceResponse map[string]map[string]float64

// GetPrice gets the price of coinID in vsCurrency, formatted with 2 decimals
func (c *CoinGeckoClient) GetPrice(ctx context.Context, coinID, vsCurrency string) (string, error) {
	vsCurrency = strings.ToLower(vsCurrency)
	q := url.Values{}
	q.Set("ids", coinID)
	q.Set("vs_currencies", vsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get rate: status %d", resp.StatusCode)
	}

	var priceResp PriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return "", fmt.Errorf("failed to decode rate: %w", err)
	}

	price, ok := priceResp[coinID][vsCurrency]
	if !ok {
		return "", fmt.Errorf("no %s price for %s", vsCurrency, coinID)
	}

	rate := strconv.FormatFloat(price, 'f', 2, 64)
	return rate, nil
}
