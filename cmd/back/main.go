package main

import (
	"context"

	"gofr.dev/pkg/gofr"

	"github.com/srclos-net/aws-micro-test/internal/back"
	"github.com/srclos-net/aws-micro-test/internal/middleware"
	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

func main() {
	app := gofr.New()

	cfg, err := tracing.ConfigFrom(app.Config)
	if err != nil {
		app.Logger().Fatalf("invalid tracing configuration: %v", err)
	}

	tracing.LogExportErrors(app.Logger())

	provider, err := tracing.NewProvider(context.Background(), cfg, app.Logger())
	if err != nil {
		app.Logger().Fatalf("failed to set up tracing: %v", err)
	}

	provider.SetGlobal()

	app.Metrics().NewCounter(back.InvocationsMetric, "Number of process-users invocations by result status.")
	app.UseMiddleware(tracing.Extract(cfg.Continue), middleware.ErrorBody)

	h := back.New(provider.Tracer(back.TracerName), app.Logger())

	app.POST("/process-users", h.Handle)

	app.Run()

	_ = provider.Shutdown(context.Background())
}
