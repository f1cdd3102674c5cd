package observe

import (
	"context"
	"log/slog"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
)

const maxLoggedBody = 2048

// LogObserver writes request lifecycle events to slog. When payloads is set,
// headers and bodies are logged at debug level.
type LogObserver struct {
	logger   *slog.Logger
	payloads bool
}

func NewLogObserver(logger *slog.Logger, payloads bool) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger, payloads: payloads}
}

func (o *LogObserver) RequestStarted(ctx context.Context, info RequestInfo) context.Context {
	attrs := []any{
		"request_id", info.RequestID,
		"provider", info.Provider,
		"dialect", info.Dialect.String(),
		"endpoint", info.Endpoint,
		"model", info.Model,
		"turns", info.Turns,
		"tools", info.Tools,
		"stream", info.Stream,
	}
	o.logger.InfoContext(ctx, "Provider request", attrs...)

	if o.payloads && o.logger.Enabled(ctx, slog.LevelDebug) {
		o.logger.DebugContext(ctx, "Provider request payload",
			"request_id", info.RequestID,
			"headers", headerAttrs(info),
			"body", clip(info.Body),
		)
	}
	return ctx
}

func (o *LogObserver) RequestFinished(ctx context.Context, result ResultInfo) {
	attrs := []any{
		"request_id", result.Request.RequestID,
		"provider", result.Request.Provider,
		"status", result.Status,
		"duration", result.Duration,
	}

	if result.Err != nil {
		attrs = append(attrs, "category", pgptErrors.Category(result.Err), "error", result.Err)
		o.logger.WarnContext(ctx, "Provider request failed", attrs...)
		return
	}

	attrs = append(attrs,
		"tool_calls", result.ToolCalls,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
	)
	o.logger.InfoContext(ctx, "Provider request completed", attrs...)

	if o.payloads && o.logger.Enabled(ctx, slog.LevelDebug) {
		o.logger.DebugContext(ctx, "Provider response payload",
			"request_id", result.Request.RequestID,
			"body", clip(result.ResponseBody),
		)
	}
}

func headerAttrs(info RequestInfo) slog.Value {
	attrs := make([]slog.Attr, 0, len(info.Headers))
	for name, values := range info.Headers {
		if len(values) > 0 {
			attrs = append(attrs, slog.String(name, values[0]))
		}
	}
	return slog.GroupValue(attrs...)
}

func clip(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody]) + "..."
}
