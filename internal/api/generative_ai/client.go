package generativeAI

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/FACorreiaa/nizhal-navigator/app/observability/metrics"
	"github.com/FACorreiaa/nizhal-navigator/config"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/schema"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

const (
	defaultModel         = "gemini-2.0-flash"
	defaultTemperature   = 0.7
	defaultMaxToolRounds = 5
)

// CompletionService is the completion backend the chat pipeline depends on.
type CompletionService interface {
	Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single structured-output call, optionally with tools.
type CompletionRequest struct {
	Name   string
	Prompt string
	Shape  *schema.Shape
	Tools  []tools.Tool
}

type ToolCall struct {
	Name  string         `json:"name"`
	Args  map[string]any `json:"args,omitempty"`
	Error string         `json:"error,omitempty"`
}

// CompletionResponse carries the final model text. Output is nil when the text held no JSON object.
type CompletionResponse struct {
	Text      string
	Output    map[string]any
	ToolCalls []ToolCall
}

// contentGenerator is the subset of *genai.Models used by the client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type AIClient struct {
	models        contentGenerator
	model         string
	temperature   float32
	maxToolRounds int
	limiter       *rate.Limiter
	logger        *slog.Logger
	closed        atomic.Bool
}

var _ CompletionService = (*AIClient)(nil)

// NewAIClient creates a Gemini-backed client. The caller owns it and must Close it.
func NewAIClient(ctx context.Context, cfg config.GenAI, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if cfg.APIKey == "" {
		err := fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable is not set: %w", types.ErrInvalidArgument)
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return newAIClient(client.Models, cfg, logger), nil
}

func newAIClient(models contentGenerator, cfg config.GenAI, logger *slog.Logger) *AIClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = defaultMaxToolRounds
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &AIClient{
		models:        models,
		model:         model,
		temperature:   temperature,
		maxToolRounds: rounds,
		limiter:       rate.NewLimiter(limit, burst),
		logger:        logger.With(slog.String("component", "GenerativeAI"), slog.String("model", model)),
	}
}

// Close releases the client. Later calls fail with types.ErrClientClosed.
func (ai *AIClient) Close() error {
	ai.closed.Store(true)
	return nil
}

// Generate runs one completion, executing requested tool calls until the model produces a final answer.
func (ai *AIClient) Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("completion.name", req.Name),
		attribute.Int("prompt.length", len(req.Prompt)),
		attribute.Int("tools.count", len(req.Tools)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	if ai.closed.Load() {
		span.RecordError(types.ErrClientClosed)
		span.SetStatus(codes.Error, "Client closed")
		return nil, types.ErrClientClosed
	}

	l := ai.logger.With(slog.String("completion", req.Name))
	cfg, prompt := ai.contentConfig(req)
	contents := genai.Text(prompt)
	byName := make(map[string]tools.Tool, len(req.Tools))
	for _, t := range req.Tools {
		byName[t.Name()] = t
	}

	var calls []ToolCall
	for round := 0; ; round++ {
		resp, err := ai.generateContent(ctx, req.Name, contents, cfg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to generate content")
			return nil, fmt.Errorf("%s: %w", req.Name, err)
		}

		fcs := resp.FunctionCalls()
		if len(fcs) == 0 || len(byName) == 0 || round >= ai.maxToolRounds {
			if len(fcs) > 0 {
				l.WarnContext(ctx, "Tool round limit reached, using partial response", slog.Int("rounds", round))
			}
			out := &CompletionResponse{Text: resp.Text(), ToolCalls: calls}
			if obj, err := schema.Decode(out.Text); err == nil {
				out.Output = obj
			} else {
				l.DebugContext(ctx, "Completion text held no JSON object", slog.Any("error", err))
			}
			span.SetAttributes(
				attribute.Int("response.length", len(out.Text)),
				attribute.Int("tool_calls.count", len(calls)),
			)
			span.SetStatus(codes.Ok, "Content generated successfully")
			return out, nil
		}

		contents = append(contents, resp.Candidates[0].Content)
		parts := make([]*genai.Part, 0, len(fcs))
		for _, fc := range fcs {
			result, call := ai.invokeTool(ctx, byName, fc)
			calls = append(calls, call)
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: result,
			}})
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
}

func (ai *AIClient) generateContent(ctx context.Context, name string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("completion", name))

	if err := ai.limiter.Wait(ctx); err != nil {
		m.CompletionErrorsTotal.Add(ctx, 1, attrs)
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := ai.models.GenerateContent(ctx, ai.model, contents, cfg)
	m.CompletionDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.CompletionErrorsTotal.Add(ctx, 1, attrs)
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return &genai.GenerateContentResponse{}, nil
	}
	return resp, nil
}

// invokeTool never fails the completion: errors are reported back to the model.
func (ai *AIClient) invokeTool(ctx context.Context, byName map[string]tools.Tool, fc *genai.FunctionCall) (map[string]any, ToolCall) {
	call := ToolCall{Name: fc.Name, Args: fc.Args}
	t, ok := byName[fc.Name]
	if !ok {
		call.Error = fmt.Sprintf("unknown tool %q", fc.Name)
		ai.logger.WarnContext(ctx, "Model requested unknown tool", slog.String("tool", fc.Name))
		return map[string]any{"error": call.Error}, call
	}
	out, err := t.Invoke(ctx, fc.Args)
	if err != nil {
		call.Error = err.Error()
		return map[string]any{"error": "tool unavailable for this call: " + err.Error()}, call
	}
	return out, call
}

// contentConfig builds the request config. Gemini rejects JSON mode combined with
// function calling, so with tools the schema is spelled out in the prompt instead.
func (ai *AIClient) contentConfig(req CompletionRequest) (*genai.GenerateContentConfig, string) {
	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(ai.temperature),
		SafetySettings: SafetySettings(),
	}
	prompt := req.Prompt
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, t.Declaration)
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if req.Shape == nil {
		return cfg, prompt
	}
	sc := req.Shape.GenAISchema()
	if len(req.Tools) > 0 {
		if b, err := json.Marshal(sc); err == nil {
			prompt += "\n\nRespond ONLY with a JSON object matching this schema, without markdown fences:\n" + string(b)
		}
		return cfg, prompt
	}
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = sc
	return cfg, prompt
}

// SafetySettings blocks only high-probability harmful content.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdBlockOnlyHigh})
	}
	return out
}
