// Package api fetches the pricing catalog from a remote catalog service.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"storal-pricer/internal/catalog"

	"go.uber.org/zap"
)

const maxCatalogSize = 8 << 20

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchCatalog downloads and validates the YAML catalog document. It
// implements quote.CatalogSource.
func (c *Client) FetchCatalog(ctx context.Context) (*catalog.Catalog, error) {
	const operation = "api.FetchCatalog"

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/api/catalog", c.baseURL),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", operation, err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/yaml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %d", operation, resp.StatusCode)
	}

	cat, err := catalog.Load(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	c.logger.Debug("Catalog fetched",
		zap.String("url", c.baseURL),
		zap.String("version", cat.Version()),
		zap.Int("models", len(cat.Models())))
	return cat, nil
}
