package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) GetAiChatResponse(ctx context.Context, query string, userLocation *types.UserLocation) (*types.ChatResponse, error) {
	args := m.Called(ctx, query, userLocation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ChatResponse), args.Error(1)
}

func doChat(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func TestHandler_Chat_OK(t *testing.T) {
	svc := new(MockChatService)
	h := NewHandler(svc, 1000, slog.Default())

	loc := &types.UserLocation{Latitude: 38.72, Longitude: -9.14}
	svc.On("GetAiChatResponse", mock.Anything, "Find quirky cafes near me", loc).
		Return(&types.ChatResponse{Answer: "Try Lisbon's tiled alleys."}, nil)

	rr := doChat(h, `{"query":"  Find quirky cafes near me ","userLocation":{"latitude":38.72,"longitude":-9.14}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Try Lisbon's tiled alleys.", body["answer"])
	assert.Equal(t, []any{}, body["links"])
	assert.NotContains(t, body, "mapUrl")
	svc.AssertExpectations(t)
}

func TestHandler_Chat_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ``},
		{name: "malformed json", body: `{"query":`},
		{name: "unknown key", body: `{"query":"hi","mood":"grumpy"}`},
		{name: "blank query", body: `{"query":"   "}`},
		{name: "query too long", body: `{"query":"` + strings.Repeat("é", 11) + `"}`},
		{name: "latitude out of range", body: `{"query":"hi","userLocation":{"latitude":91,"longitude":0}}`},
		{name: "longitude out of range", body: `{"query":"hi","userLocation":{"latitude":0,"longitude":-181}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockChatService)
			h := NewHandler(svc, 10, slog.Default())

			rr := doChat(h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body types.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
			svc.AssertNotCalled(t, "GetAiChatResponse", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Chat_QueryAtLimitAccepted(t *testing.T) {
	svc := new(MockChatService)
	h := NewHandler(svc, 10, slog.Default())
	query := strings.Repeat("é", 10)
	svc.On("GetAiChatResponse", mock.Anything, query, (*types.UserLocation)(nil)).
		Return(&types.ChatResponse{Answer: "ok", Links: types.LinkSet{}}, nil)

	rr := doChat(h, `{"query":"`+query+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_Chat_Unavailable(t *testing.T) {
	svc := new(MockChatService)
	h := NewHandler(svc, 1000, slog.Default())
	svc.On("GetAiChatResponse", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &types.AssistantUnavailableError{Cause: errors.New("quota exceeded")})

	rr := doChat(h, `{"query":"Where is the Eiffel Tower?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body types.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Nizhal is unable to respond right now. Details: quota exceeded", body.Error)
}

func TestHandler_Chat_InternalError(t *testing.T) {
	svc := new(MockChatService)
	h := NewHandler(svc, 1000, slog.Default())
	svc.On("GetAiChatResponse", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("wiring bug"))

	rr := doChat(h, `{"query":"Where is the Eiffel Tower?"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "wiring bug")
}
