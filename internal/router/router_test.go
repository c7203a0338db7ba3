package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/nizhal-navigator/internal/api/chat"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

type stubChatService struct {
	resp *types.ChatResponse
}

func (s stubChatService) GetAiChatResponse(context.Context, string, *types.UserLocation) (*types.ChatResponse, error) {
	return s.resp, nil
}

func newTestRouter(rpm int) http.Handler {
	svc := stubChatService{resp: &types.ChatResponse{Answer: "Bonjour.", Links: types.LinkSet{}}}
	return SetupRouter(&Config{
		ChatHandler:       chat.NewHandler(svc, 1000, slog.Default()),
		ToolsHandler:      tools.NewHandler(slog.Default()),
		AllowedOrigins:    []string{"http://localhost:3000"},
		RequestsPerMinute: rpm,
		Logger:            slog.Default(),
	})
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(0)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "ping", method: http.MethodGet, path: "/ping", want: http.StatusOK},
		{name: "chat", method: http.MethodPost, path: "/api/v1/chat", body: `{"query":"hi"}`, want: http.StatusOK},
		{name: "chat wrong method", method: http.MethodGet, path: "/api/v1/chat", want: http.StatusMethodNotAllowed},
		{name: "fun fact", method: http.MethodGet, path: "/api/v1/tools/fun-fact?topic=paris", want: http.StatusOK},
		{name: "map link missing location", method: http.MethodGet, path: "/api/v1/tools/map-link", want: http.StatusBadRequest},
		{name: "unknown", method: http.MethodGet, path: "/api/v2/chat", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestRouter_ChatBody(t *testing.T) {
	r := newTestRouter(0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"hi","userLocation":null}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Bonjour.", body["answer"])
	assert.Equal(t, []any{}, body["links"])
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(0)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimitOnlyOnAPI(t *testing.T) {
	r := newTestRouter(1)

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("/api/v1/tools/fun-fact?topic=paris"))
	assert.Equal(t, http.StatusTooManyRequests, call("/api/v1/tools/fun-fact?topic=paris"))
	assert.Equal(t, http.StatusOK, call("/ping"))
}
