/*
Package weather wraps the OpenWeatherMap current-weather and reverse
geocoding endpoints. Every failure path collapses to a fixed
"unavailable" sentinel so callers can embed the result in prompts and
context snapshots without error handling of their own.
*/
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

const (
	WeatherUnavailable  = "Weather unavailable"
	LocationUnavailable = "Location unavailable"

	defaultBaseURL = "https://api.openweathermap.org"
	requestTimeout = 10 * time.Second

	cacheSize = 256
	cacheTTL  = 5 * time.Minute
)

// Client queries OpenWeatherMap. Lookups are cached for a few minutes
// keyed by rounded coordinates, since users do not move fast enough to
// make per-request lookups worthwhile.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   *lru.LRU[string, string]
}

// New reads OPENWEATHER_API_KEY from the environment. An empty key is
// allowed; every lookup then returns its sentinel.
func New() *Client {
	return newClient(os.Getenv("OPENWEATHER_API_KEY"), defaultBaseURL)
}

func newClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		cache:   lru.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type geoEntry struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Weather returns "18°C, 맑음" style text for the coordinates, or the
// sentinel when the key is missing or the lookup fails.
func (c *Client) Weather(ctx context.Context, lat, lng float64) string {
	if c.apiKey == "" {
		return WeatherUnavailable
	}

	key := cacheKey("weather", lat, lng)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "kr")

	var data weatherResponse
	if err := c.getJSON(ctx, "/data/2.5/weather", q, &data); err != nil {
		log.Warn().Err(err).Msg("Weather lookup failed")
		return WeatherUnavailable
	}
	if len(data.Weather) == 0 {
		return WeatherUnavailable
	}

	result := fmt.Sprintf("%.0f°C, %s", data.Main.Temp, data.Weather[0].Description)
	c.cache.Add(key, result)
	return result
}

// Location reverse-geocodes the coordinates to "city, country", or the
// sentinel when that is not possible.
func (c *Client) Location(ctx context.Context, lat, lng float64) string {
	if c.apiKey == "" {
		return LocationUnavailable
	}

	key := cacheKey("geo", lat, lng)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("appid", c.apiKey)
	q.Set("limit", "1")

	var entries []geoEntry
	if err := c.getJSON(ctx, "/geo/1.0/reverse", q, &entries); err != nil {
		log.Warn().Err(err).Msg("Reverse geocoding failed")
		return LocationUnavailable
	}
	if len(entries) == 0 || entries[0].Name == "" {
		return LocationUnavailable
	}

	result := fmt.Sprintf("%s, %s", entries[0].Name, entries[0].Country)
	c.cache.Add(key, result)
	return result
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned non-200 status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Rounding to two decimals (~1km) keeps nearby requests on one cache
// entry.
func cacheKey(kind string, lat, lng float64) string {
	return fmt.Sprintf("%s:%.2f:%.2f", kind, lat, lng)
}
