package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client reverse-geocodes coordinates into a human-readable place name.
// The provider speaks a Nominatim-style reverse endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("GEOCODE_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("GEOCODE_API_BASE_URL is empty")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("GEOCODE_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	timeoutSecs := 10
	if v := strings.TrimSpace(os.Getenv("GEOCODE_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutSecs = n
		}
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("GEOCODE_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second},
	}, nil
}

type Place struct {
	NameEn string `json:"name_en"`
	NameAr string `json:"name_ar"`
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Suburb string `json:"suburb"`
		City   string `json:"city"`
		Road   string `json:"road"`
	} `json:"address"`
	NameAr string `json:"name_ar"`
}

// Reverse resolves coordinates to a place. Callers treat failure as
// non-fatal and degrade to raw coordinate text.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	endpoint := c.baseURL + "/reverse?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed reverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	name := parsed.DisplayName
	if name == "" {
		parts := []string{}
		for _, p := range []string{parsed.Address.Road, parsed.Address.Suburb, parsed.Address.City} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		name = strings.Join(parts, ", ")
	}
	if name == "" {
		return nil, errors.New("geocode response had no place name")
	}

	nameAr := parsed.NameAr
	if nameAr == "" {
		nameAr = name
	}
	return &Place{NameEn: name, NameAr: nameAr}, nil
}
