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

// GitHubSource polls a user's public activity feed and turns pushes, PRs,
// issues and releases into generic events. The GitHub event ID is the
// external ID.
type GitHubSource struct {
	client  *http.Client
	baseURL string
	user    string
	token   string
	limit   int
}

func NewGitHubSource(user, token, baseURL string) *GitHubSource {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    strings.TrimSpace(user),
		token:   token,
		limit:   5,
	}
}

func (s *GitHubSource) Name() string { return "github" }

type githubEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

func (s *GitHubSource) Poll(ctx context.Context) ([]models.BotEvent, error) {
	if s.user == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(s.limit))
	endpoint := fmt.Sprintf("%s/users/%s/events/public?%s", s.baseURL, url.PathEscape(s.user), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed []githubEvent
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("github: decode response: %w", err)
	}
	if len(parsed) > s.limit {
		parsed = parsed[:s.limit]
	}

	events := make([]models.BotEvent, 0, len(parsed))
	for _, raw := range parsed {
		if raw.ID == "" {
			continue
		}
		topic, payload := summarizeGitHubEvent(raw)
		payload["repo"] = raw.Repo.Name
		payload["type"] = raw.Type
		events = append(events, models.BotEvent{
			Kind:       models.EventGeneric,
			Topic:      topic,
			ExternalID: "github:" + raw.ID,
			Payload:    payload,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return events, nil
}

// summarizeGitHubEvent renders one activity item as a short topic line plus
// the payload fields worth surfacing to the prompt builder.
func summarizeGitHubEvent(ev githubEvent) (string, map[string]any) {
	repo := ev.Repo.Name
	if repo == "" {
		repo = "a repo"
	}
	payload := map[string]any{}

	switch ev.Type {
	case "PushEvent":
		var p struct {
			Ref     string `json:"ref"`
			Commits []struct {
				Message string `json:"message"`
			} `json:"commits"`
		}
		_ = json.Unmarshal(ev.Payload, &p)
		messages := make([]string, 0, 3)
		for _, c := range p.Commits {
			if c.Message == "" {
				continue
			}
			messages = append(messages, c.Message)
			if len(messages) == 3 {
				break
			}
		}
		payload["ref"] = p.Ref
		payload["commit_count"] = len(p.Commits)
		payload["commit_messages"] = messages
		return fmt.Sprintf("GitHub: Pushed %d commit(s) to %s", len(p.Commits), repo), payload

	case "PullRequestEvent":
		var p struct {
			Action      string `json:"action"`
			PullRequest struct {
				Title string `json:"title"`
				URL   string `json:"html_url"`
			} `json:"pull_request"`
		}
		_ = json.Unmarshal(ev.Payload, &p)
		payload["action"] = p.Action
		payload["title"] = p.PullRequest.Title
		payload["url"] = p.PullRequest.URL
		return fmt.Sprintf("GitHub: PR %s - %s", orDefault(p.Action, "update"), orDefault(p.PullRequest.Title, "Untitled")), payload

	case "IssuesEvent":
		var p struct {
			Action string `json:"action"`
			Issue  struct {
				Title string `json:"title"`
				URL   string `json:"html_url"`
			} `json:"issue"`
		}
		_ = json.Unmarshal(ev.Payload, &p)
		payload["action"] = p.Action
		payload["title"] = p.Issue.Title
		payload["url"] = p.Issue.URL
		return fmt.Sprintf("GitHub: Issue %s - %s", orDefault(p.Action, "update"), orDefault(p.Issue.Title, "Untitled")), payload

	case "ReleaseEvent":
		var p struct {
			Action  string `json:"action"`
			Release struct {
				Tag string `json:"tag_name"`
				URL string `json:"html_url"`
			} `json:"release"`
		}
		_ = json.Unmarshal(ev.Payload, &p)
		payload["action"] = p.Action
		payload["tag"] = p.Release.Tag
		payload["url"] = p.Release.URL
		return strings.TrimSpace(fmt.Sprintf("GitHub: Release %s %s", p.Release.Tag, p.Action)), payload

	case "CreateEvent":
		var p struct {
			RefType string `json:"ref_type"`
			Ref     string `json:"ref"`
		}
		_ = json.Unmarshal(ev.Payload, &p)
		payload["ref_type"] = p.RefType
		payload["ref"] = p.Ref
		return strings.TrimSpace(fmt.Sprintf("GitHub: Created %s %s", orDefault(p.RefType, "item"), p.Ref)), payload
	}

	return fmt.Sprintf("GitHub: %s on %s", orDefault(ev.Type, "Event"), repo), payload
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
