package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trailhub/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Provider fetches a road-snapped path between two points. A nil
// Provider means routing is unconfigured; callers fall back to straight
// lines.
type Provider interface {
	GetRoutePoints(ctx context.Context, origin, destination models.Coordinate) ([]models.Coordinate, error)
}

// OSRMConfig holds routing provider configuration.
type OSRMConfig struct {
	BaseURL        string        `json:"base_url"`
	Profile        string        `json:"profile"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     uint64        `json:"max_retries"`
}

// DefaultOSRMConfig returns default provider configuration.
func DefaultOSRMConfig() *OSRMConfig {
	return &OSRMConfig{
		Profile:        "driving",
		RequestTimeout: 10 * time.Second,
		MaxRetries:     2,
	}
}

// OSRMProvider talks to an OSRM-compatible routing server.
type OSRMProvider struct {
	config *OSRMConfig
	client *http.Client
	logger *zap.Logger
}

// NewOSRMProvider creates a provider, or nil when no base URL is
// configured so the caller degrades to straight-line segments.
func NewOSRMProvider(config *OSRMConfig, logger *zap.Logger) *OSRMProvider {
	if config == nil || config.BaseURL == "" {
		return nil
	}
	if config.Profile == "" {
		config.Profile = "driving"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSRMProvider{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
		logger: logger,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// GetRoutePoints implements Provider. Transient failures are retried
// with exponential backoff before the error is surfaced.
func (p *OSRMProvider) GetRoutePoints(ctx context.Context, origin, destination models.Coordinate) ([]models.Coordinate, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		p.config.BaseURL, p.config.Profile,
		origin.Lng, origin.Lat,
		destination.Lng, destination.Lat,
	)

	var points []models.Coordinate
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("routing server returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("routing server returned %d", resp.StatusCode))
		}

		var body osrmResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decode routing response: %w", err))
		}
		if body.Code != "Ok" || len(body.Routes) == 0 {
			return backoff.Permanent(fmt.Errorf("no route found (code %q)", body.Code))
		}

		points, err = DecodePolyline(body.Routes[0].Geometry)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.config.MaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("fetch route: %w", err)
	}

	return points, nil
}
