package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/nizhal-navigator/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/nizhal-navigator/internal/api/generative_ai"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/schema"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
	"github.com/FACorreiaa/nizhal-navigator/internal/prompts"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

const completionName = "tourismQueryAnswering"

// OutputShape is the structured output expected from the answer completion.
var OutputShape = schema.Shape{Fields: []schema.Field{
	{
		Name:        "answer",
		Description: "The answer to the user query or a conversational response, delivered with personality.",
		Kind:        schema.String,
		Required:    true,
		NonEmpty:    true,
	},
	{
		Name:          "mapUrl",
		Description:   "A Google Maps URL relevant to the query, if a map was requested or is highly relevant. Omit otherwise.",
		Kind:          schema.String,
		Nullable:      true,
		EmptyAsAbsent: true,
		Format:        schema.FormatURL,
	},
}}

// Phrases matched as whole words anywhere in the query.
var attributionPhrases = []string{
	"who created you",
	"who developed you",
	"who made you",
	"who built you",
	"who is your creator",
	"who is your developer",
}

var _ Service = (*ServiceImpl)(nil)

// Service answers a single tourism query.
type Service interface {
	Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResult, error)
}

type ServiceImpl struct {
	completion generativeAI.CompletionService
	prompts    prompts.Renderer
	tools      []tools.Tool
	logger     *slog.Logger
}

func NewServiceImpl(completion generativeAI.CompletionService, renderer prompts.Renderer, toolset []tools.Tool, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		completion: completion,
		prompts:    renderer,
		tools:      toolset,
		logger:     logger,
	}
}

// Generate returns a validated answer. Invalid or missing output resolves to types.FallbackAnswer;
// only a failed call to the completion service is returned as an error.
func (s *ServiceImpl) Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResult, error) {
	ctx, span := otel.Tracer("AnswerService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("query.length", len(req.Query)),
		attribute.Bool("user.location", req.HasLocation()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Generate"))

	if IsAttributionQuery(req.Query) {
		l.DebugContext(ctx, "Attribution query, skipping completion")
		span.SetAttributes(attribute.Bool("answer.attribution", true))
		span.SetStatus(codes.Ok, "Attribution answer")
		return types.GenerationResult{Answer: types.AttributionAnswer}, nil
	}

	prompt, err := s.prompts.Render(prompts.Answer, prompts.AnswerData{
		Query:        req.Query,
		UserLocation: req.UserLocation,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to render prompt")
		return types.GenerationResult{}, fmt.Errorf("failed to render answer prompt: %w", err)
	}

	resp, err := s.completion.Generate(ctx, generativeAI.CompletionRequest{
		Name:   completionName,
		Prompt: prompt,
		Shape:  &OutputShape,
		Tools:  s.tools,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion failed")
		return types.GenerationResult{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	var raw map[string]any
	if resp != nil {
		raw = resp.Output
		span.SetAttributes(attribute.Int("tool_calls.count", len(resp.ToolCalls)))
	}
	result := s.reconcile(ctx, l, raw)
	span.SetAttributes(
		attribute.Bool("answer.fallback", result.Answer == types.FallbackAnswer),
		attribute.Bool("answer.map", result.MapURL != ""),
	)
	span.SetStatus(codes.Ok, "Answer generated")
	return result, nil
}

func (s *ServiceImpl) reconcile(ctx context.Context, l *slog.Logger, raw map[string]any) types.GenerationResult {
	res := OutputShape.Validate(raw)

	answer, ok := res.String("answer")
	if !ok || !res.FieldOK("answer") {
		l.ErrorContext(ctx, "Completion did not return a valid answer, using fallback",
			slog.Bool("output_present", raw != nil),
			slog.String("violations", res.Error()))
		metrics.Get().GenerationFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("completion", completionName)))
		return types.GenerationResult{Answer: types.FallbackAnswer}
	}

	result := types.GenerationResult{Answer: answer}
	if mapURL, ok := res.String("mapUrl"); ok {
		result.MapURL = strings.TrimSpace(mapURL)
	} else if !res.FieldOK("mapUrl") {
		l.WarnContext(ctx, "Dropping malformed map URL", slog.Any("mapUrl", raw["mapUrl"]))
	}
	return result
}

// IsAttributionQuery reports whether the query asks who built the assistant.
// Matching is case-insensitive and ignores punctuation; phrases must align on word boundaries.
func IsAttributionQuery(query string) bool {
	normalized := " " + strings.Join(strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "
	for _, phrase := range attributionPhrases {
		if strings.Contains(normalized, " "+phrase+" ") {
			return true
		}
	}
	return false
}
