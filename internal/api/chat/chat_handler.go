package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/nizhal-navigator/internal/api"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

type Handler struct {
	service        Service
	maxQueryLength int
	logger         *slog.Logger
}

func NewHandler(service Service, maxQueryLength int, logger *slog.Logger) *Handler {
	return &Handler{
		service:        service,
		maxQueryLength: maxQueryLength,
		logger:         logger,
	}
}

// Chat godoc
// @Summary      Ask Nizhal
// @Description  Answers a tourism question with optional map link and supplementary links.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request body types.ChatRequest true "User message and optional location"
// @Success      200 {object} types.ChatResponse "Chat response"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      503 {object} types.Response "Assistant Unavailable"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "Chat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Chat"))

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid chat request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validate(&req); err != nil {
		l.WarnContext(ctx, "Chat request rejected", slog.Any("error", err))
		span.SetStatus(codes.Error, "Validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.Bool("user.location", req.UserLocation != nil))

	resp, err := h.service.GetAiChatResponse(ctx, req.Query, req.UserLocation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Chat failed")
		if errors.Is(err, types.ErrAssistantUnavailable) {
			api.ErrorResponse(w, r, http.StatusServiceUnavailable, err.Error())
			return
		}
		l.ErrorContext(ctx, "Unexpected chat failure", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	span.SetStatus(codes.Ok, "Chat response sent")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *Handler) validate(req *types.ChatRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return fmt.Errorf("%w: query must not be empty", types.ErrInvalidArgument)
	}
	if h.maxQueryLength > 0 && utf8.RuneCountInString(req.Query) > h.maxQueryLength {
		return fmt.Errorf("%w: query must not exceed %d characters", types.ErrInvalidArgument, h.maxQueryLength)
	}
	if req.UserLocation != nil && !req.UserLocation.Valid() {
		return fmt.Errorf("%w: userLocation must hold a latitude in [-90, 90] and a longitude in [-180, 180]", types.ErrInvalidArgument)
	}
	return nil
}
