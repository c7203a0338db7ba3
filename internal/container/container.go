package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/nizhal-navigator/config"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/answer"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/chat"
	generativeAI "github.com/FACorreiaa/nizhal-navigator/internal/api/generative_ai"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/links"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
	"github.com/FACorreiaa/nizhal-navigator/internal/prompts"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	AIClient     *generativeAI.AIClient
	Prompts      *prompts.Store
	ChatService  *chat.ServiceImpl
	ChatHandler  *chat.Handler
	ToolsHandler *tools.Handler
}

// NewContainer builds the chat pipeline on the Gemini client. It fails fast when the API key is missing.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.GenAI, logger.With(slog.String("component", "genai")))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	c, err := NewWithCompletion(cfg, aiClient, logger)
	if err != nil {
		_ = aiClient.Close()
		return nil, err
	}
	c.AIClient = aiClient
	return c, nil
}

// NewWithCompletion builds the pipeline on any completion service.
func NewWithCompletion(cfg *config.Config, completion generativeAI.CompletionService, logger *slog.Logger) (*Container, error) {
	store, err := prompts.NewStore(cfg.Prompts.Dir, logger.With(slog.String("component", "prompts")))
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	registry := tools.NewRegistry(logger.With(slog.String("component", "tools")))

	answerService := answer.NewServiceImpl(completion, store, registry.Tools(), logger.With(slog.String("component", "answer")))
	linkService := links.NewServiceImpl(completion, store, logger.With(slog.String("component", "links")))
	chatService := chat.NewServiceImpl(answerService, linkService, cfg.Chat.RequestTimeout, logger.With(slog.String("component", "chat")))

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Prompts:      store,
		ChatService:  chatService,
		ChatHandler:  chat.NewHandler(chatService, cfg.Chat.MaxQueryLength, logger),
		ToolsHandler: tools.NewHandler(logger),
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.AIClient != nil {
		if err := c.AIClient.Close(); err != nil {
			c.Logger.Warn("Failed to close completion client", slog.Any("error", err))
		}
	}
}

// WatchPrompts reloads templates on change until ctx is done. It is a no-op unless enabled.
func (c *Container) WatchPrompts(ctx context.Context) error {
	if !c.Config.Prompts.Watch || c.Config.Prompts.Dir == "" {
		return nil
	}
	return c.Prompts.Watch(ctx)
}
