package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jency96/Form-Management/config"
	"github.com/Jency96/Form-Management/model"
)

// GeocodeService wraps the coordinate-search and reverse-geocode
// endpoints. Their schemas are not owned by this system; responses are
// treated as untrusted and missing fields are tolerated.
type GeocodeService struct {
	config     *config.GeocodeConfig
	httpClient *http.Client
}

// reverseResponse mirrors the subset of the reverse-geocode schema this
// service reads.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road          string `json:"road"`
		Pedestrian    string `json:"pedestrian"`
		Footway       string `json:"footway"`
		Neighbourhood string `json:"neighbourhood"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		County        string `json:"county"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
		Country       string `json:"country"`
	} `json:"address"`
}

func NewGeocodeService(cfg *config.GeocodeConfig) *GeocodeService {
	return &GeocodeService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Search looks up places matching a free-text query.
func (s *GeocodeService) Search(ctx context.Context, query string, limit int) ([]model.Place, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", fmt.Sprintf("%d", limit))

	body, err := s.get(ctx, s.config.SearchURL, q)
	if err != nil {
		return nil, err
	}

	var places []model.Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return places, nil
}

// Reverse resolves coordinates to an address. The road falls back
// through pedestrian, footway and neighbourhood; the locality through
// city, town, village and county.
func (s *GeocodeService) Reverse(ctx context.Context, lat, lng float64) (*model.Address, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("format", "jsonv2")
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	body, err := s.get(ctx, s.config.ReverseURL, q)
	if err != nil {
		return nil, err
	}

	var res reverseResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to parse reverse response: %w", err)
	}

	a := res.Address
	addr := &model.Address{
		Road:     firstNonEmpty(a.Road, a.Pedestrian, a.Footway, a.Neighbourhood),
		City:     firstNonEmpty(a.City, a.Town, a.Village, a.County),
		State:    a.State,
		Postcode: a.Postcode,
		Country:  a.Country,
	}

	var parts []string
	for _, p := range []string{addr.Road, addr.City, addr.State, addr.Postcode, addr.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	addr.Full = strings.Join(parts, ", ")
	if addr.Full == "" {
		addr.Full = res.DisplayName
	}
	return addr, nil
}

func (s *GeocodeService) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
