package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "itinerary-planner-service/1.0"
)

var _ ports.ReverseGeocoder = (*NominatimClient)(nil)

// ErrNoResult is returned when the service answers but knows no place at the position.
var ErrNoResult = errors.New("no reverse geocode result")

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NominatimConfig tunes the client. Zero values fall back to defaults.
type NominatimConfig struct {
	BaseURL     string
	UserAgent   string
	Email       string
	Timeout     time.Duration
	MinInterval time.Duration
	MaxAttempts int
}

// NominatimClient implements ReverseGeocoder against the OSM Nominatim /reverse endpoint.
//
// The client is safe for concurrent use; requests are spaced by MinInterval.
type NominatimClient struct {
	session     *http.Client
	baseURL     string
	userAgent   string
	email       string
	minInterval time.Duration
	maxAttempts int
	backoff     time.Duration

	throttleMu sync.Mutex
	last       time.Time
}

func NewNominatimClient(cfg NominatimConfig) *NominatimClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	return &NominatimClient{
		session:     &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		userAgent:   userAgent,
		email:       strings.TrimSpace(cfg.Email),
		minInterval: cfg.MinInterval,
		maxAttempts: maxAttempts,
		backoff:     200 * time.Millisecond,
	}
}

// Reverse resolves a position to Nominatim's display_name.
func (n *NominatimClient) Reverse(ctx context.Context, pos domain.Coordinates) (_ string, err error) {
	defer obs.Time(ctx, "nominatim.Reverse")(&err)

	endpoint := n.baseURL + "/reverse"

	resp, err := n.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := n.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("format", "jsonv2")
		q.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(pos.Lng, 'f', -1, 64))
		if n.email != "" {
			q.Set("email", n.email)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %s: %w", pos, err)
	}
	defer resp.Body.Close()

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}

	if decoded.Error != "" {
		return "", fmt.Errorf("reverse geocode %s: %w: %s", pos, ErrNoResult, decoded.Error)
	}

	name := strings.TrimSpace(decoded.DisplayName)
	if name == "" {
		return "", fmt.Errorf("reverse geocode %s: %w", pos, ErrNoResult)
	}

	return name, nil
}
