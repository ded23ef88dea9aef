package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/adrianhensler/botterverse/internal/director"
	"github.com/adrianhensler/botterverse/internal/models"
	"github.com/adrianhensler/botterverse/internal/store"
	"github.com/adrianhensler/botterverse/pkg/llm"
)

func testRouter(t *testing.T) (*gin.Engine, *store.MemoryStore, *director.Director) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	reg := director.NewRegistry()
	local := llm.NewLocalProvider()
	router := director.NewModelRouter(
		director.TierConfig{Provider: local, ModelName: llm.LocalModelName},
		director.TierConfig{Provider: local, ModelName: llm.LocalModelName},
		local,
		[]string{"formal", "professional"},
		logger,
	)
	d := director.New(director.DefaultConfig(), reg, st, router, logger, nil, nil)

	p := reg.Register(director.Persona{Handle: "aiwatcher", Tone: "casual", Interests: []string{"AI"}, CadenceMinutes: 30})
	require.NoError(t, st.AddAuthor(context.Background(), models.Author{
		ID: p.ID, Handle: p.Handle, DisplayName: p.DisplayName, Type: models.AuthorBot,
	}))

	r := gin.New()
	New(st, d, logger).Register(r)
	return r, st, d
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePostAndTimeline(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", models.PostCreate{
		AuthorID: director.PersonaID("aiwatcher"),
		Content:  "hello timeline",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.Equal(t, "hello timeline", post.Content)

	w = doJSON(t, r, http.MethodGet, "/api/v1/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var timeline struct {
		Timeline []models.TimelineEntry `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &timeline))
	require.Len(t, timeline.Timeline, 1)
	require.Equal(t, "aiwatcher", timeline.Timeline[0].Author.Handle)
}

func TestCreatePostUnknownAuthor(t *testing.T) {
	r, _, _ := testRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", models.PostCreate{
		AuthorID: uuid.New(),
		Content:  "orphan",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeToggle(t *testing.T) {
	r, st, _ := testRouter(t)
	ctx := context.Background()

	human := models.Author{ID: uuid.New(), Handle: "alex", Type: models.AuthorHuman}
	require.NoError(t, st.AddAuthor(ctx, human))
	post, err := st.CreatePost(ctx, models.PostCreate{AuthorID: director.PersonaID("aiwatcher"), Content: "like me"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID.String()+"/like", likeRequest{AuthorID: human.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"likes": 1}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID.String()+"/like", likeRequest{AuthorID: human.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"likes": 0}`, w.Body.String())
}

func TestInjectEventDeduplicates(t *testing.T) {
	r, _, d := testRouter(t)

	body := eventRequest{Kind: models.EventNews, Topic: "AI breakthrough", ExternalID: "s1"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/director/events", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, d.PendingReactions())

	w = doJSON(t, r, http.MethodPost, "/api/v1/director/events", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"accepted": false}`, w.Body.String())
	require.Equal(t, 1, d.PendingReactions())
}

func TestPauseResumeStatus(t *testing.T) {
	r, _, d := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/director/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, d.Paused())

	w = doJSON(t, r, http.MethodGet, "/api/v1/director/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status director.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.True(t, status.Paused)
	require.Equal(t, 1, status.Personas)

	w = doJSON(t, r, http.MethodPost, "/api/v1/director/resume", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, d.Paused())
}

func TestManualTick(t *testing.T) {
	r, _, _ := testRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/director/tick", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDMRoundTrip(t *testing.T) {
	r, st, _ := testRouter(t)
	ctx := context.Background()

	human := models.Author{ID: uuid.New(), Handle: "alex", Type: models.AuthorHuman}
	require.NoError(t, st.AddAuthor(ctx, human))
	bot := director.PersonaID("aiwatcher")

	w := doJSON(t, r, http.MethodPost, "/api/v1/dms", models.DMCreate{
		SenderID: human.ID, RecipientID: bot, Content: "hello bot",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/dms/"+human.ID.String()+"/"+bot.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []models.DMMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
}

func TestAuditListing(t *testing.T) {
	r, st, _ := testRouter(t)
	require.NoError(t, st.AddAuditEntry(context.Background(), models.AuditEntry{
		PersonaID: director.PersonaID("aiwatcher"),
		Prompt:    "p", ModelName: "m", Output: "o",
	}))

	w := doJSON(t, r, http.MethodGet, "/api/v1/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []models.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
}
