package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/pgpt/internal/config"
	"github.com/harunnryd/pgpt/internal/model"
	"github.com/harunnryd/pgpt/internal/model/client"
	"github.com/harunnryd/pgpt/internal/observe"
	"github.com/harunnryd/pgpt/internal/telemetry"

	"github.com/spf13/cobra"
)

const telemetryShutdownTimeout = 5 * time.Second

// executeWithRegistry builds the provider registry with logging and, when
// enabled, OTLP observers, then runs fn.
func executeWithRegistry(cmd *cobra.Command, fn func(context.Context, *model.Registry) error) error {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	providers, err := telemetry.Init(ctx, loadedCfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	observer, err := buildObserver(loadedCfg, providers.Enabled())
	if err != nil {
		return fmt.Errorf("failed to initialize observer: %w", err)
	}

	registry, err := model.NewRegistry(loadedCfg.Models, client.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	return fn(ctx, registry)
}

func buildObserver(c *config.Config, withOTel bool) (observe.Observer, error) {
	observers := []observe.Observer{observe.NewLogObserver(slog.Default(), c.Log.Payloads)}
	if withOTel {
		otelObserver, err := observe.NewOTelObserver()
		if err != nil {
			return nil, err
		}
		observers = append(observers, otelObserver)
	}
	return observe.Multi(observers...), nil
}
