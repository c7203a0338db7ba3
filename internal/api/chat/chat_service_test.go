package chat

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/nizhal-navigator/internal/api/answer"
	generativeAI "github.com/FACorreiaa/nizhal-navigator/internal/api/generative_ai"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/links"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
	"github.com/FACorreiaa/nizhal-navigator/internal/prompts"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.GenerationResult), args.Error(1)
}

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Recommend(ctx context.Context, req types.LinkRecommendationRequest) (types.LinkSet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(types.LinkSet), args.Error(1)
}

type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Generate(ctx context.Context, req generativeAI.CompletionRequest) (*generativeAI.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generativeAI.CompletionResponse), args.Error(1)
}

const eiffelMap = "https://www.google.com/maps/search/?api=1&query=Eiffel%20Tower%2C%20Paris"

func TestGetAiChatResponse_AnswerWithLinksAndMap(t *testing.T) {
	answers := new(MockAnswerService)
	linkService := new(MockLinkService)
	svc := NewServiceImpl(answers, linkService, 0, slog.Default())

	answers.On("Generate", mock.Anything, types.GenerationRequest{Query: "Where is the Eiffel Tower?"}).
		Return(types.GenerationResult{Answer: "Paris, darling.", MapURL: eiffelMap}, nil)
	linkService.On("Recommend", mock.Anything, types.LinkRecommendationRequest{
		Query:  "Where is the Eiffel Tower?",
		Answer: "Paris, darling.",
	}).Return(types.LinkSet{"https://www.toureiffel.paris/en"}, nil)

	resp, err := svc.GetAiChatResponse(context.Background(), "Where is the Eiffel Tower?", nil)
	require.NoError(t, err)
	assert.Equal(t, &types.ChatResponse{
		Answer: "Paris, darling.",
		Links:  types.LinkSet{"https://www.toureiffel.paris/en"},
		MapURL: eiffelMap,
	}, resp)
	answers.AssertExpectations(t)
	linkService.AssertExpectations(t)
}

func TestGetAiChatResponse_LocationIsForwarded(t *testing.T) {
	answers := new(MockAnswerService)
	linkService := new(MockLinkService)
	svc := NewServiceImpl(answers, linkService, 0, slog.Default())

	loc := &types.UserLocation{Latitude: 48.85, Longitude: 2.35}
	answers.On("Generate", mock.Anything, mock.MatchedBy(func(req types.GenerationRequest) bool {
		return req.UserLocation != nil && *req.UserLocation == *loc && req.UserLocation != loc
	})).Return(types.GenerationResult{Answer: "Try the cafe around the corner."}, nil)
	linkService.On("Recommend", mock.Anything, mock.Anything).Return(types.LinkSet{}, nil)

	resp, err := svc.GetAiChatResponse(context.Background(), "Find quirky cafes near me", loc)
	require.NoError(t, err)
	assert.Equal(t, "Try the cafe around the corner.", resp.Answer)
	assert.Empty(t, resp.MapURL)
	answers.AssertExpectations(t)
}

func TestGetAiChatResponse_FallbackSkipsLinks(t *testing.T) {
	answers := new(MockAnswerService)
	linkService := new(MockLinkService)
	svc := NewServiceImpl(answers, linkService, 0, slog.Default())

	answers.On("Generate", mock.Anything, mock.Anything).
		Return(types.GenerationResult{Answer: types.FallbackAnswer, MapURL: eiffelMap}, nil)

	resp, err := svc.GetAiChatResponse(context.Background(), "asdfgh", nil)
	require.NoError(t, err)
	assert.Equal(t, types.FallbackAnswer, resp.Answer)
	assert.NotNil(t, resp.Links)
	assert.Empty(t, resp.Links)
	assert.Empty(t, resp.MapURL)
	linkService.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
}

func TestGetAiChatResponse_BlankAnswerBecomesFallback(t *testing.T) {
	answers := new(MockAnswerService)
	linkService := new(MockLinkService)
	svc := NewServiceImpl(answers, linkService, 0, slog.Default())

	answers.On("Generate", mock.Anything, mock.Anything).Return(types.GenerationResult{Answer: "  "}, nil)

	resp, err := svc.GetAiChatResponse(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, types.FallbackAnswer, resp.Answer)
	linkService.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
}

func TestGetAiChatResponse_LinkFailuresAreAbsorbed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MockLinkService)
	}{
		{
			name: "error",
			setup: func(m *MockLinkService) {
				m.On("Recommend", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
			},
		},
		{
			name: "nil set",
			setup: func(m *MockLinkService) {
				m.On("Recommend", mock.Anything, mock.Anything).Return(nil, nil)
			},
		},
		{
			name: "panic",
			setup: func(m *MockLinkService) {
				m.On("Recommend", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
					panic("boom")
				}).Return(types.LinkSet{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := new(MockAnswerService)
			linkService := new(MockLinkService)
			tt.setup(linkService)
			svc := NewServiceImpl(answers, linkService, 0, slog.Default())

			answers.On("Generate", mock.Anything, mock.Anything).
				Return(types.GenerationResult{Answer: "Paris, darling.", MapURL: eiffelMap}, nil)

			resp, err := svc.GetAiChatResponse(context.Background(), "Where is the Eiffel Tower?", nil)
			require.NoError(t, err)
			assert.Equal(t, "Paris, darling.", resp.Answer)
			assert.Equal(t, eiffelMap, resp.MapURL)
			assert.NotNil(t, resp.Links)
			assert.Empty(t, resp.Links)
		})
	}
}

func TestGetAiChatResponse_GeneratorFailure(t *testing.T) {
	cause := errors.New("503 from upstream")

	tests := []struct {
		name  string
		setup func(m *MockAnswerService)
	}{
		{
			name: "error",
			setup: func(m *MockAnswerService) {
				m.On("Generate", mock.Anything, mock.Anything).Return(types.GenerationResult{}, cause)
			},
		},
		{
			name: "panic",
			setup: func(m *MockAnswerService) {
				m.On("Generate", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
					panic("nil pointer somewhere")
				}).Return(types.GenerationResult{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := new(MockAnswerService)
			linkService := new(MockLinkService)
			tt.setup(answers)
			svc := NewServiceImpl(answers, linkService, 0, slog.Default())

			resp, err := svc.GetAiChatResponse(context.Background(), "Where is the Eiffel Tower?", nil)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, types.ErrAssistantUnavailable)

			var unavailable *types.AssistantUnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Contains(t, err.Error(), "Nizhal is unable to respond right now. Details: ")
			linkService.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
		})
	}
}

func TestGetAiChatResponse_Timeout(t *testing.T) {
	answers := new(MockAnswerService)
	linkService := new(MockLinkService)
	svc := NewServiceImpl(answers, linkService, 10*time.Millisecond, slog.Default())

	answers.On("Generate", mock.Anything, mock.Anything).Return(types.GenerationResult{}, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		})

	_, err := svc.GetAiChatResponse(context.Background(), "slow question", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAssistantUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Real answer and link services over a completion service that always fails.
func newPipeline(t *testing.T, completion generativeAI.CompletionService) *ServiceImpl {
	t.Helper()
	store, err := prompts.NewStore("", slog.Default())
	require.NoError(t, err)
	answers := answer.NewServiceImpl(completion, store, tools.NewRegistry(slog.Default()).Tools(), slog.Default())
	linkService := links.NewServiceImpl(completion, store, slog.Default())
	return NewServiceImpl(answers, linkService, 0, slog.Default())
}

func TestGetAiChatResponse_AttributionWithFailingService(t *testing.T) {
	completion := new(MockCompletionService)
	completion.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("service down"))
	svc := newPipeline(t, completion)

	resp, err := svc.GetAiChatResponse(context.Background(), "who made you?", nil)
	require.NoError(t, err)
	assert.Equal(t, types.AttributionAnswer, resp.Answer)
	assert.NotNil(t, resp.Links)
	assert.Empty(t, resp.Links)
	assert.Empty(t, resp.MapURL)

	// Only the link recommender reaches the service; it has no tools and its failure is absorbed.
	for _, call := range completion.Calls {
		req := call.Arguments.Get(1).(generativeAI.CompletionRequest)
		assert.Empty(t, req.Tools)
		assert.NotSame(t, &answer.OutputShape, req.Shape)
	}

	_, err = svc.GetAiChatResponse(context.Background(), "Where is the Eiffel Tower?", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAssistantUnavailable)
}

func TestGetAiChatResponse_PipelineInvalidOutput(t *testing.T) {
	completion := new(MockCompletionService)
	completion.On("Generate", mock.Anything, mock.Anything).
		Return(&generativeAI.CompletionResponse{Output: map[string]any{"answer": 42}}, nil)
	svc := newPipeline(t, completion)

	resp, err := svc.GetAiChatResponse(context.Background(), "Where is the Eiffel Tower?", nil)
	require.NoError(t, err)
	assert.Equal(t, types.FallbackAnswer, resp.Answer)
	assert.Empty(t, resp.Links)
	completion.AssertNumberOfCalls(t, "Generate", 1)
}
