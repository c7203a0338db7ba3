// Package tools holds the deterministic helpers the model may call while answering.
package tools

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/FACorreiaa/nizhal-navigator/app/observability/metrics"
)

const (
	FunFactToolName = "getFunFact"
	MapLinkToolName = "getGoogleMapsLink"
)

// Tool is a function the completion service may invoke mid-generation.
type Tool struct {
	Declaration *genai.FunctionDeclaration
	Invoke      func(ctx context.Context, args map[string]any) (map[string]any, error)
}

func (t Tool) Name() string {
	return t.Declaration.Name
}

// Registry exposes the tools offered to the answer generator.
type Registry struct {
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Tools returns fresh tool values; each invocation is logged, traced and counted.
func (r *Registry) Tools() []Tool {
	return []Tool{r.funFactTool(), r.mapLinkTool()}
}

func (r *Registry) funFactTool() Tool {
	return Tool{
		Declaration: &genai.FunctionDeclaration{
			Name:        FunFactToolName,
			Description: "Provides a fun fact about a specific topic, person, or place. Use this to add interesting details to your response when relevant to the user query.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"topic": {
						Type:        genai.TypeString,
						Description: `The topic for which a fun fact is requested. Should be specific, e.g., "Eiffel Tower", "Paris", "Louvre Museum".`,
					},
				},
				Required: []string{"topic"},
			},
		},
		Invoke: r.instrument(FunFactToolName, func(_ context.Context, args map[string]any) (map[string]any, error) {
			topic, _ := args["topic"].(string)
			return map[string]any{"output": FunFact(topic)}, nil
		}),
	}
}

func (r *Registry) mapLinkTool() Tool {
	return Tool{
		Declaration: &genai.FunctionDeclaration{
			Name:        MapLinkToolName,
			Description: "Provides a Google Maps link for a given location, point of interest, or coordinates. Use this tool if the user asks for a map, directions, or to see where something is. For example, if the user asks 'Where is the Louvre Museum?', 'Show me a map of Barcelona', or if coordinates like '48.8584,2.2945' are provided and a map of that area is needed.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"locationName": {
						Type:        genai.TypeString,
						Description: `The name of the location, point of interest (e.g., "Eiffel Tower, Paris", "restaurants near Times Square, New York"), or comma-separated latitude and longitude coordinates (e.g., "48.8584,2.2945") for which a Google Maps link is desired. Be as specific as possible.`,
					},
				},
				Required: []string{"locationName"},
			},
		},
		Invoke: r.instrument(MapLinkToolName, func(_ context.Context, args map[string]any) (map[string]any, error) {
			name, _ := args["locationName"].(string)
			link, err := MapLink(name)
			if err != nil {
				return nil, err
			}
			return map[string]any{"output": link}, nil
		}),
	}
}

type invokeFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

func (r *Registry) instrument(name string, fn invokeFunc) invokeFunc {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		ctx, span := otel.Tracer("Tools").Start(ctx, name)
		defer span.End()

		l := r.logger.With(slog.String("tool", name))
		out, err := fn(ctx, args)
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "Tool invocation failed")
			l.WarnContext(ctx, "Tool invocation failed", slog.Any("args", args), slog.Any("error", err))
		} else {
			span.SetStatus(codes.Ok, "Tool invoked")
			l.DebugContext(ctx, "Tool invoked", slog.Any("args", args))
		}
		metrics.Get().ToolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", name),
			attribute.String("status", status),
		))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return out, nil
	}
}
