package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ChatRequestsTotal         metric.Int64Counter
	ChatDurationSeconds       metric.Float64Histogram
	CompletionDurationSeconds metric.Float64Histogram
	CompletionErrorsTotal     metric.Int64Counter
	GenerationFallbacksTotal  metric.Int64Counter
	LinkFailuresTotal         metric.Int64Counter
	LinksFilteredTotal        metric.Int64Counter
	ToolInvocationsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the instruments ONLY ONCE from the global MeterProvider.
// Instruments created before the SDK provider is installed are delegated to it once it is.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("NizhalNavigator")
		var err error
		m := &AppMetrics{}

		m.ChatRequestsTotal, err = meter.Int64Counter(
			"chat_requests_total",
			metric.WithDescription("Total number of chat requests completed, by outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_requests_total: %v", err)
		}

		m.ChatDurationSeconds, err = meter.Float64Histogram(
			"chat_duration_seconds",
			metric.WithDescription("Duration of chat requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_duration_seconds: %v", err)
		}

		m.CompletionDurationSeconds, err = meter.Float64Histogram(
			"completion_duration_seconds",
			metric.WithDescription("Duration of completion service calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create completion_duration_seconds: %v", err)
		}

		m.CompletionErrorsTotal, err = meter.Int64Counter(
			"completion_errors_total",
			metric.WithDescription("Total number of failed completion service calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create completion_errors_total: %v", err)
		}

		m.GenerationFallbacksTotal, err = meter.Int64Counter(
			"generation_fallbacks_total",
			metric.WithDescription("Total number of answers replaced by the fallback answer"),
			metric.WithUnit("{answer}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_fallbacks_total: %v", err)
		}

		m.LinkFailuresTotal, err = meter.Int64Counter(
			"link_recommendation_failures_total",
			metric.WithDescription("Total number of link recommendations absorbed as an empty set"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create link_recommendation_failures_total: %v", err)
		}

		m.LinksFilteredTotal, err = meter.Int64Counter(
			"links_filtered_total",
			metric.WithDescription("Total number of recommended links dropped as malformed"),
			metric.WithUnit("{link}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create links_filtered_total: %v", err)
		}

		m.ToolInvocationsTotal, err = meter.Int64Counter(
			"tool_invocations_total",
			metric.WithDescription("Total number of tool invocations, by tool and status"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tool_invocations_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the AppMetrics instance, initializing it on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
