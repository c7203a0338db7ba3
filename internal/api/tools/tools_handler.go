package tools

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/nizhal-navigator/internal/api"
)

// Output is the body of both tool endpoints. It matches what the model receives.
type Output struct {
	Output string `json:"output"`
}

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// FunFact godoc
// @Summary      Fun fact
// @Description  Returns a fun fact about a landmark or city. Unknown topics get a generic sentence.
// @Tags         Tools
// @Produce      json
// @Param        topic query string true "Landmark or city"
// @Success      200 {object} tools.Output "Fun fact"
// @Failure      400 {object} types.Response "Invalid Input"
// @Router       /tools/fun-fact [get]
func (h *Handler) FunFact(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ToolsHandler").Start(r.Context(), "FunFact", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/tools/fun-fact"),
	))
	defer span.End()

	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		span.SetStatus(codes.Error, "Missing topic")
		api.ErrorResponse(w, r, http.StatusBadRequest, "topic query parameter is required")
		return
	}

	h.logger.DebugContext(ctx, "Fun fact requested", slog.String("topic", topic))
	api.WriteJSONResponse(w, r, http.StatusOK, Output{Output: FunFact(topic)})
}

// MapLink godoc
// @Summary      Map link
// @Description  Builds a Google Maps search URL for a place name or "lat,long" pair.
// @Tags         Tools
// @Produce      json
// @Param        location query string true "Place name or coordinates"
// @Success      200 {object} tools.Output "Map search URL"
// @Failure      400 {object} types.Response "Invalid Input"
// @Router       /tools/map-link [get]
func (h *Handler) MapLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ToolsHandler").Start(r.Context(), "MapLink", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/tools/map-link"),
	))
	defer span.End()

	link, err := MapLink(r.URL.Query().Get("location"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid location")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.DebugContext(ctx, "Map link built", slog.String("url", link))
	api.WriteJSONResponse(w, r, http.StatusOK, Output{Output: link})
}
