// Package geo looks up IP-derived geolocation from public HTTP
// services. The data is opportunistic: any failure returns what was
// gathered so far and the submission proceeds with empty fields.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"advocacy-backend/models"

	"github.com/apex/log"
)

const (
	ipEndpoint     = "https://api.ipify.org?format=json"
	lookupEndpoint = "https://ipapi.co/%s/json/"
)

// Client resolves the caller's public IP and its geolocation
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new geolocation client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type ipResponse struct {
	IP string `json:"ip"`
}

type lookupResponse struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Enrich fills the location fields of md for the given IP. When ip is
// empty the public-IP service is asked first, then the geolocation
// service; each step is best-effort and partial results are kept.
func (c *Client) Enrich(ctx context.Context, md *models.Metadata, ip string) {
	if ip == "" {
		resolved, err := c.publicIP(ctx)
		if err != nil {
			log.WithError(err).Warn("Public IP lookup failed, keeping metadata as-is")
			return
		}
		ip = resolved
	}
	md.IP = ip

	loc, err := c.lookup(ctx, ip)
	if err != nil {
		log.WithError(err).Warnf("Geolocation lookup failed for %s", ip)
		return
	}

	md.City = loc.City
	md.Region = loc.Region
	md.Country = loc.Country
	md.Latitude = strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
	md.Longitude = strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
}

func (c *Client) publicIP(ctx context.Context) (string, error) {
	var resp ipResponse
	if err := c.getJSON(ctx, ipEndpoint, &resp); err != nil {
		return "", err
	}
	return resp.IP, nil
}

func (c *Client) lookup(ctx context.Context, ip string) (*lookupResponse, error) {
	var resp lookupResponse
	if err := c.getJSON(ctx, fmt.Sprintf(lookupEndpoint, ip), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("lookup service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
