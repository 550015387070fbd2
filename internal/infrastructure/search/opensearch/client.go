// Package opensearch makes finished analysis runs searchable.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Client wraps the OpenSearch connection.
type Client struct {
	client      *opensearch.Client
	indexPrefix string
	logger      logging.Logger
}

// NewClient connects to the configured cluster.
func NewClient(cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "at least one opensearch address is required")
	}

	osCfg := opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.User,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		osCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "failed to create opensearch client")
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "forestwatch"
	}

	log.Info("connected to OpenSearch", logging.Any("addresses", cfg.Addresses))
	return &Client{client: client, indexPrefix: prefix, logger: log}, nil
}

// NewClientWithOpenSearch wraps an existing low-level client, for tests.
func NewClientWithOpenSearch(client *opensearch.Client, indexPrefix string, log logging.Logger) *Client {
	return &Client{client: client, indexPrefix: indexPrefix, logger: log}
}

// GetClient exposes the low-level client.
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// RunIndex is the index name holding run documents.
func (c *Client) RunIndex() string {
	return c.indexPrefix + "-runs"
}

// HealthCheck pings the cluster.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "opensearch ping failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.CodeSearchError, "opensearch ping returned %s", resp.Status())
	}
	return nil
}
