package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/config"
	"healthcare-interop-dashboard/internal/model"
)

// Client is the single chokepoint for all outbound calls to the remote
// metrics service. It translates every failure into the NetworkError /
// HTTPStatusError / DecodeError taxonomy and never caches responses.
type Client interface {
	// FetchSnapshot executes one metric query and decodes the body into
	// the query's expected result shape.
	FetchSnapshot(ctx context.Context, query model.MetricQuery) (*model.MetricSnapshot, error)

	// Post routes a write-style operation (connectivity test, resource
	// validation) through the same error translation. The decoded
	// response is written into out when out is non-nil.
	Post(ctx context.Context, path string, body interface{}, out interface{}) error
}

type httpGatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds the gateway client from config. A zero request timeout
// leaves fetches unbounded; a hanging fetch leaves its widget stale rather
// than erroring.
func NewClient(cfg *config.Config) Client {
	return &httpGatewayClient{
		baseURL: strings.TrimRight(cfg.Remote.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Remote.RequestTimeout,
		},
	}
}

func (c *httpGatewayClient) FetchSnapshot(ctx context.Context, query model.MetricQuery) (*model.MetricSnapshot, error) {
	body, err := c.call(ctx, http.MethodGet, query.Path, nil)
	if err != nil {
		return nil, err
	}

	snapshot, err := decodeSnapshot(query, body, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("query", query.Name).Msg("Failed to decode metric response")
		return nil, &DecodeError{Query: query.Name, Err: err}
	}

	log.Debug().Str("query", query.Name).Int("labels", len(snapshot.Labels)).Msg("Fetched metric snapshot")
	return snapshot, nil
}

func (c *httpGatewayClient) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	respBody, err := c.call(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Query: path, Err: err}
	}
	return nil
}

func (c *httpGatewayClient) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Metrics service request failed")
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to read metrics service response body")
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Error().Int("status_code", resp.StatusCode).Str("url", url).Bytes("response_body", respBody).Msg("Metrics service returned non-success status")
		return nil, &HTTPStatusError{URL: url, Status: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}
