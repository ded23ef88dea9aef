package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adrianhensler/botterverse/internal/models"
)

// NewsSource polls NewsAPI top headlines. The article URL is the external
// ID, so a story seen across polls dedupes cleanly.
type NewsSource struct {
	client   *http.Client
	apiKey   string
	baseURL  string
	category string
	limit    int
}

func NewNewsSource(apiKey, baseURL, category string) *NewsSource {
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}
	if category == "" {
		category = "technology"
	}
	return &NewsSource{
		client:   &http.Client{Timeout: 15 * time.Second},
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		category: category,
		limit:    5,
	}
}

func (s *NewsSource) Name() string { return "news" }

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (s *NewsSource) Poll(ctx context.Context) ([]models.BotEvent, error) {
	q := url.Values{}
	q.Set("category", s.category)
	q.Set("pageSize", fmt.Sprint(s.limit))
	q.Set("apiKey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news: create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("news: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("news: decode response: %w", err)
	}

	events := make([]models.BotEvent, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		events = append(events, models.BotEvent{
			Kind:       models.EventNews,
			Topic:      a.Title,
			ExternalID: a.URL,
			Payload: map[string]any{
				"source":      a.Source.Name,
				"description": a.Description,
			},
			CreatedAt: time.Now().UTC(),
		})
	}
	return events, nil
}
