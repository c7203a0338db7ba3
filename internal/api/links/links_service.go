package links

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/nizhal-navigator/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/nizhal-navigator/internal/api/generative_ai"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/schema"
	"github.com/FACorreiaa/nizhal-navigator/internal/prompts"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

const (
	completionName = "recommendLinks"
	noAnswerText   = "(No answer provided by the primary assistant)"
)

// OutputShape allows empty strings so malformed entries reach Filter instead of failing the whole output.
var OutputShape = schema.Shape{Fields: []schema.Field{
	{
		Name:        "links",
		Description: "An array of relevant URLs for further reading.",
		Kind:        schema.Array,
		Required:    true,
		Items:       &schema.Field{Kind: schema.String, Format: schema.FormatURLOrEmpty},
	},
}}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Recommend(ctx context.Context, req types.LinkRecommendationRequest) (types.LinkSet, error)
}

type ServiceImpl struct {
	completion generativeAI.CompletionService
	prompts    prompts.Renderer
	logger     *slog.Logger
}

func NewServiceImpl(completion generativeAI.CompletionService, renderer prompts.Renderer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{completion: completion, prompts: renderer, logger: logger}
}

// Recommend asks for supplementary links. A missing or malformed output yields an empty set;
// only a failed call to the completion service is returned as an error.
func (s *ServiceImpl) Recommend(ctx context.Context, req types.LinkRecommendationRequest) (types.LinkSet, error) {
	ctx, span := otel.Tracer("LinksService").Start(ctx, "Recommend")
	defer span.End()

	l := s.logger.With(slog.String("method", "Recommend"))

	answer := req.Answer
	if strings.TrimSpace(answer) == "" {
		answer = noAnswerText
	}
	prompt, err := s.prompts.Render(prompts.Links, prompts.LinksData{Query: req.Query, Answer: answer})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to render prompt")
		return nil, fmt.Errorf("failed to render links prompt: %w", err)
	}

	resp, err := s.completion.Generate(ctx, generativeAI.CompletionRequest{
		Name:   completionName,
		Prompt: prompt,
		Shape:  &OutputShape,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion failed")
		return nil, fmt.Errorf("failed to recommend links: %w", err)
	}

	var raw map[string]any
	if resp != nil {
		raw = resp.Output
	}
	res := OutputShape.Validate(raw)
	candidates, ok := res.Slice("links")
	if !ok {
		l.ErrorContext(ctx, "Completion did not return valid links", slog.String("violations", res.Error()))
		span.SetStatus(codes.Ok, "No valid links returned")
		return types.LinkSet{}, nil
	}

	links := Filter(candidates)
	if dropped := len(candidates) - len(links); dropped > 0 {
		l.DebugContext(ctx, "Filtered out invalid links", slog.Int("dropped", dropped), slog.String("violations", res.Error()))
		metrics.Get().LinksFilteredTotal.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String("completion", completionName)))
	}
	span.SetAttributes(attribute.Int("links.count", len(links)))
	span.SetStatus(codes.Ok, "Links recommended")
	return links, nil
}

// Filter keeps string entries that are non-blank absolute URLs, trimmed, in their original order.
func Filter(candidates []any) types.LinkSet {
	out := make(types.LinkSet, 0, len(candidates))
	for _, c := range candidates {
		link, ok := c.(string)
		if !ok || !schema.IsAbsoluteURL(link) {
			continue
		}
		out = append(out, strings.TrimSpace(link))
	}
	return out
}
