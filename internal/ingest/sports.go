package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adrianhensler/botterverse/internal/models"
)

// SportsSource polls TheSportsDB for a league's most recent results. The
// upstream event ID is the external ID.
type SportsSource struct {
	client   *http.Client
	baseURL  string
	leagueID string
}

func NewSportsSource(baseURL, leagueID string) *SportsSource {
	if baseURL == "" {
		// Key "3" is the public test key.
		baseURL = "https://www.thesportsdb.com/api/v1/json/3"
	}
	if leagueID == "" {
		leagueID = "4328" // English Premier League
	}
	return &SportsSource{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		leagueID: leagueID,
	}
}

func (s *SportsSource) Name() string { return "sports" }

type sportsResponse struct {
	Events []struct {
		ID        string `json:"idEvent"`
		Name      string `json:"strEvent"`
		HomeScore string `json:"intHomeScore"`
		AwayScore string `json:"intAwayScore"`
		Date      string `json:"dateEvent"`
	} `json:"events"`
}

func (s *SportsSource) Poll(ctx context.Context) ([]models.BotEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/eventspastleague.php?id="+s.leagueID, nil)
	if err != nil {
		return nil, fmt.Errorf("sports: create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sports: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sports: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed sportsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("sports: decode response: %w", err)
	}

	events := make([]models.BotEvent, 0, len(parsed.Events))
	for i, e := range parsed.Events {
		if i == 5 {
			break
		}
		if e.ID == "" || e.Name == "" {
			continue
		}
		topic := e.Name
		if e.HomeScore != "" && e.AwayScore != "" {
			topic = fmt.Sprintf("%s finished %s-%s", e.Name, e.HomeScore, e.AwayScore)
		}
		events = append(events, models.BotEvent{
			Kind:       models.EventSports,
			Topic:      topic,
			ExternalID: "sportsdb-" + e.ID,
			Payload: map[string]any{
				"date": e.Date,
			},
			CreatedAt: time.Now().UTC(),
		})
	}
	return events, nil
}
