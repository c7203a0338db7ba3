package tools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_FunFact(t *testing.T) {
	h := NewHandler(slog.Default())

	tests := []struct {
		name     string
		topic    string
		wantCode int
		want     string
	}{
		{
			name:     "known topic",
			topic:    "Paris",
			wantCode: http.StatusOK,
			want:     "Paris was originally a Roman city called Lutetia.",
		},
		{
			name:     "unknown topic",
			topic:    "Kyoto",
			wantCode: http.StatusOK,
			want:     "One interesting (but perhaps not widely known) detail about Kyoto is its unique connection to local traditions and history.",
		},
		{
			name:     "missing topic",
			topic:    "",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tools/fun-fact?topic="+url.QueryEscape(tt.topic), nil)
			rr := httptest.NewRecorder()
			h.FunFact(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var out Output
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
			assert.Equal(t, tt.want, out.Output)
		})
	}
}

func TestHandler_MapLink(t *testing.T) {
	h := NewHandler(slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools/map-link?location="+url.QueryEscape("Eiffel Tower, Paris"), nil)
	rr := httptest.NewRecorder()
	h.MapLink(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out Output
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=Eiffel%20Tower%2C%20Paris", out.Output)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tools/map-link", nil)
	rr = httptest.NewRecorder()
	h.MapLink(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
