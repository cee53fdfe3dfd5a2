package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/gateway"
)

// ConnectionTestResult is the remote service's report for one partner
// system probe: a status per checked endpoint plus an overall verdict.
type ConnectionTestResult struct {
	Checks        map[string]EndpointCheck `json:"checks"`
	OverallStatus string                   `json:"overall_status"`
}

type EndpointCheck struct {
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time"`
}

// ErrUnknownPartner is returned for partner names outside the catalog.
var ErrUnknownPartner = errors.New("unknown partner")

var partnerPaths = map[string]string{
	"epic":   "/api/epic/test",
	"cerner": "/api/cerner/test",
}

// ConnectivityService runs the user-triggered partner connection tests.
// Unlike the background refresh, these are allowed a couple of retries
// because a human is waiting for a definitive answer.
type ConnectivityService interface {
	TestPartner(ctx context.Context, partner string) (*ConnectionTestResult, error)
}

type connectivityService struct {
	client gateway.Client
}

func NewConnectivityService(client gateway.Client) ConnectivityService {
	return &connectivityService{client: client}
}

func (s *connectivityService) TestPartner(ctx context.Context, partner string) (*ConnectionTestResult, error) {
	path, ok := partnerPaths[partner]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPartner, partner)
	}
	log.Info().Str("partner", partner).Msg("Running partner connectivity test")

	var result ConnectionTestResult
	operation := func() error {
		return s.client.Post(ctx, path, nil, &result)
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx))
	if err != nil {
		log.Error().Err(err).Str("partner", partner).Msg("Partner connectivity test failed")
		return nil, err
	}

	log.Info().Str("partner", partner).Str("overall_status", result.OverallStatus).Msg("Partner connectivity test finished")
	return &result, nil
}
