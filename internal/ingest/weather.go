package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adrianhensler/botterverse/internal/models"
)

// WeatherSource summarizes the Open-Meteo forecast for a fixed point. No API
// key required. One event per calendar day keeps the feed from spamming the
// dedup window.
type WeatherSource struct {
	client  *http.Client
	baseURL string
	lat     float64
	lon     float64
}

func NewWeatherSource(baseURL string, lat, lon float64) *WeatherSource {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1"
	}
	return &WeatherSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		lat:     lat,
		lon:     lon,
	}
}

func (s *WeatherSource) Name() string { return "weather" }

type weatherResponse struct {
	Daily struct {
		Time       []string  `json:"time"`
		TempMax    []float64 `json:"temperature_2m_max"`
		TempMin    []float64 `json:"temperature_2m_min"`
		Precipitat []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (s *WeatherSource) Poll(ctx context.Context) ([]models.BotEvent, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(s.lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(s.lon, 'f', 4, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", "1")
	q.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}
	if len(parsed.Daily.Time) == 0 || len(parsed.Daily.TempMax) == 0 || len(parsed.Daily.TempMin) == 0 {
		return nil, nil
	}

	day := parsed.Daily.Time[0]
	topic := fmt.Sprintf("Today's weather: high %.0f°C, low %.0f°C", parsed.Daily.TempMax[0], parsed.Daily.TempMin[0])
	payload := map[string]any{
		"high": parsed.Daily.TempMax[0],
		"low":  parsed.Daily.TempMin[0],
	}
	if len(parsed.Daily.Precipitat) > 0 {
		payload["precipitation"] = parsed.Daily.Precipitat[0]
	}
	return []models.BotEvent{{
		Kind:       models.EventWeather,
		Topic:      topic,
		ExternalID: "weather-" + day,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}}, nil
}
