package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/nizhal-navigator/app/observability/metrics"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/answer"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/links"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service turns one user message into the composite response shown by the UI.
type Service interface {
	GetAiChatResponse(ctx context.Context, query string, userLocation *types.UserLocation) (*types.ChatResponse, error)
}

type ServiceImpl struct {
	answers answer.Service
	links   links.Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewServiceImpl wires the orchestrator. A zero timeout leaves the caller's deadline in charge.
func NewServiceImpl(answers answer.Service, linkService links.Service, timeout time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		answers: answers,
		links:   linkService,
		timeout: timeout,
		logger:  logger,
	}
}

// GetAiChatResponse generates an answer, then asks for supplementary links unless the answer is the fallback.
// The only error it returns is *types.AssistantUnavailableError; link failures degrade to an empty set.
func (s *ServiceImpl) GetAiChatResponse(ctx context.Context, query string, userLocation *types.UserLocation) (*types.ChatResponse, error) {
	chatID := uuid.New()
	start := time.Now()

	ctx, span := otel.Tracer("ChatService").Start(ctx, "GetAiChatResponse", trace.WithAttributes(
		attribute.String("chat.id", chatID.String()),
		attribute.Bool("user.location", userLocation != nil),
	))
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	l := s.logger.With(slog.String("chat_id", chatID.String()))
	l.InfoContext(ctx, "Chat request received",
		slog.Int("query_length", len(query)),
		slog.Bool("has_location", userLocation != nil))

	req := types.GenerationRequest{Query: query}
	if userLocation != nil {
		loc := *userLocation
		req.UserLocation = &loc
	}

	result, err := s.generate(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Answer generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Answer generation failed")
		s.record(ctx, "unavailable", start)
		return nil, &types.AssistantUnavailableError{Cause: err}
	}

	if strings.TrimSpace(result.Answer) == "" {
		l.WarnContext(ctx, "Answer generator returned a blank answer, using fallback")
		result = types.GenerationResult{Answer: types.FallbackAnswer}
	}

	if result.Answer == types.FallbackAnswer {
		span.SetAttributes(attribute.Bool("answer.fallback", true))
		span.SetStatus(codes.Ok, "Fallback answer")
		s.record(ctx, "fallback", start)
		return &types.ChatResponse{Answer: result.Answer, Links: types.LinkSet{}}, nil
	}

	linkSet := s.recommend(ctx, l, types.LinkRecommendationRequest{Query: query, Answer: result.Answer})

	span.SetAttributes(
		attribute.Int("links.count", len(linkSet)),
		attribute.Bool("answer.map", result.MapURL != ""),
	)
	span.SetStatus(codes.Ok, "Chat response generated")
	s.record(ctx, "ok", start)
	l.InfoContext(ctx, "Chat response generated",
		slog.Int("links", len(linkSet)),
		slog.Bool("map", result.MapURL != ""),
		slog.Duration("elapsed", time.Since(start)))

	return &types.ChatResponse{
		Answer: result.Answer,
		Links:  linkSet,
		MapURL: result.MapURL,
	}, nil
}

func (s *ServiceImpl) generate(ctx context.Context, req types.GenerationRequest) (result types.GenerationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("answer generator panicked: %v", r)
		}
	}()
	return s.answers.Generate(ctx, req)
}

// recommend never fails; every problem is logged and absorbed as an empty set.
func (s *ServiceImpl) recommend(ctx context.Context, l *slog.Logger, req types.LinkRecommendationRequest) (set types.LinkSet) {
	defer func() {
		if r := recover(); r != nil {
			l.ErrorContext(ctx, "Link recommender panicked", slog.Any("panic", r))
			metrics.Get().LinkFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "panic")))
			set = types.LinkSet{}
		}
	}()

	set, err := s.links.Recommend(ctx, req)
	if err != nil {
		l.WarnContext(ctx, "Link recommendation failed, continuing without links", slog.Any("error", err))
		metrics.Get().LinkFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "error")))
		return types.LinkSet{}
	}
	if set == nil {
		return types.LinkSet{}
	}
	return set
}

func (s *ServiceImpl) record(ctx context.Context, outcome string, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m := metrics.Get()
	m.ChatRequestsTotal.Add(ctx, 1, attrs)
	m.ChatDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}
