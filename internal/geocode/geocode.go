// Package geocode resolves outlet coordinates into postal address fields.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 8 * time.Second

// ErrNoResult is returned when the geocoder knows nothing about the point.
var ErrNoResult = errors.New("geocode: no result")

type Place struct {
	Formatted  string
	City       string
	Region     string
	Suburb     string
	PostalCode string
}

// StatusError is returned when the geocoder answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocode: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type reverseResponse struct {
	Results []struct {
		Formatted  string `json:"formatted"`
		Components struct {
			City     string `json:"city"`
			Town     string `json:"town"`
			Village  string `json:"village"`
			State    string `json:"state"`
			Suburb   string `json:"suburb"`
			Postcode string `json:"postcode"`
		} `json:"components"`
	} `json:"results"`
}

// ReverseGeocode looks up the address at lat, lon.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	endpoint, err := url.JoinPath(c.baseURL, "geocode", "v1", "json")
	if err != nil {
		return Place{}, err
	}
	q := url.Values{}
	q.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", c.apiKey)
	q.Set("no_annotations", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("geocode: reverse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Place{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("geocode: decode: %w", err)
	}
	if len(body.Results) == 0 {
		return Place{}, ErrNoResult
	}

	r := body.Results[0]
	city := firstNonEmpty(r.Components.City, r.Components.Town, r.Components.Village)
	return Place{
		Formatted:  r.Formatted,
		City:       city,
		Region:     r.Components.State,
		Suburb:     r.Components.Suburb,
		PostalCode: r.Components.Postcode,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
