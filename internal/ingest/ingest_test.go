package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/adrianhensler/botterverse/internal/models"
)

func TestNewsSourcePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/top-headlines", r.URL.Path)
		require.Equal(t, "technology", r.URL.Query().Get("category"))
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "AI breakthrough", "url": "https://example.com/a", "source": {"name": "Example"}},
				{"title": "", "url": "https://example.com/b"},
				{"title": "Chips are back", "url": "https://example.com/c", "description": "fabs everywhere"}
			]
		}`))
	}))
	defer srv.Close()

	src := NewNewsSource("test-key", srv.URL, "")
	events, err := src.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, models.EventNews, events[0].Kind)
	require.Equal(t, "AI breakthrough", events[0].Topic)
	require.Equal(t, "https://example.com/a", events[0].ExternalID)
	require.Equal(t, "fabs everywhere", events[1].Payload["description"])
}

func TestNewsSourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error","code":"apiKeyInvalid"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewNewsSource("bad", srv.URL, "")
	_, err := src.Poll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "apiKeyInvalid")
}

func TestWeatherSourcePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forecast", r.URL.Path)
		require.Equal(t, "51.5070", r.URL.Query().Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["2026-03-01"],
				"temperature_2m_max": [14.2],
				"temperature_2m_min": [6.8],
				"precipitation_sum": [0.4]
			}
		}`))
	}))
	defer srv.Close()

	src := NewWeatherSource(srv.URL, 51.507, -0.1276)
	events, err := src.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventWeather, events[0].Kind)
	require.Equal(t, "weather-2026-03-01", events[0].ExternalID)
	require.Contains(t, events[0].Topic, "high 14")
	require.Equal(t, 0.4, events[0].Payload["precipitation"])
}

func TestSportsSourcePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/eventspastleague.php", r.URL.Path)
		require.Equal(t, "4328", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"events": [
				{"idEvent": "100", "strEvent": "Foxes vs Hounds", "intHomeScore": "2", "intAwayScore": "1", "dateEvent": "2026-02-28"},
				{"idEvent": "", "strEvent": "ignored"}
			]
		}`))
	}))
	defer srv.Close()

	src := NewSportsSource(srv.URL, "")
	events, err := src.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventSports, events[0].Kind)
	require.Equal(t, "Foxes vs Hounds finished 2-1", events[0].Topic)
	require.Equal(t, "sportsdb-100", events[0].ExternalID)
}

func TestGitHubSourcePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/octo/events/public", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "1", "type": "PushEvent", "repo": {"name": "octo/widgets"},
			 "payload": {"ref": "refs/heads/main", "commits": [{"message": "fix flaky retry"}, {"message": "bump deps"}]}},
			{"id": "2", "type": "ReleaseEvent", "repo": {"name": "octo/widgets"},
			 "payload": {"action": "published", "release": {"tag_name": "v1.4.0", "html_url": "https://example.com/r"}}},
			{"id": "", "type": "WatchEvent"}
		]`))
	}))
	defer srv.Close()

	src := NewGitHubSource("octo", "tok", srv.URL)
	events, err := src.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, models.EventGeneric, events[0].Kind)
	require.Equal(t, "GitHub: Pushed 2 commit(s) to octo/widgets", events[0].Topic)
	require.Equal(t, "github:1", events[0].ExternalID)
	require.Equal(t, []string{"fix flaky retry", "bump deps"}, events[0].Payload["commit_messages"])
	require.Equal(t, "GitHub: Release v1.4.0 published", events[1].Topic)
	require.Equal(t, "v1.4.0", events[1].Payload["tag"])
}

func TestGitHubSourceEmptyUser(t *testing.T) {
	src := NewGitHubSource("  ", "", "")
	events, err := src.Poll(context.Background())
	require.NoError(t, err)
	require.Empty(t, events)
}

type stubSource struct {
	name   string
	events []models.BotEvent
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Poll(ctx context.Context) ([]models.BotEvent, error) {
	return s.events, s.err
}

func TestPollAllMergesAndSkipsFailures(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sources := []Source{
		stubSource{name: "a", events: []models.BotEvent{{Kind: models.EventNews, Topic: "one"}}},
		stubSource{name: "broken", err: errors.New("upstream down")},
		stubSource{name: "b", events: []models.BotEvent{
			{Kind: models.EventSports, Topic: "two"},
			{Kind: models.EventSports, Topic: "three"},
		}},
	}
	events := PollAll(context.Background(), sources, logger)
	require.Len(t, events, 3)

	topics := make([]string, 0, len(events))
	for _, ev := range events {
		topics = append(topics, ev.Topic)
	}
	require.ElementsMatch(t, []string{"one", "two", "three"}, topics)
}
