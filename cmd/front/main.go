package main

import (
	"context"

	"gofr.dev/pkg/gofr"

	"github.com/srclos-net/aws-micro-test/internal/front"
	"github.com/srclos-net/aws-micro-test/internal/middleware"
	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

func main() {
	app := gofr.New()

	tracingCfg, err := tracing.ConfigFrom(app.Config)
	if err != nil {
		app.Logger().Fatalf("invalid tracing configuration: %v", err)
	}

	frontCfg, err := front.ConfigFrom(app.Config)
	if err != nil {
		app.Logger().Fatalf("invalid service configuration: %v", err)
	}

	tracing.LogExportErrors(app.Logger())

	provider, err := tracing.NewProvider(context.Background(), tracingCfg, app.Logger())
	if err != nil {
		app.Logger().Fatalf("failed to set up tracing: %v", err)
	}

	provider.SetGlobal()

	tracer := provider.Tracer(front.TracerName)

	app.AddHTTPService(front.BackServiceName, app.Config.GetOrDefault("BACK_SERVICE_URL", "http://localhost:8001"))
	app.Metrics().NewCounter(front.RequestsMetric, "Number of process-users requests by result status.")
	app.UseMiddleware(tracing.Middleware(tracer), middleware.ErrorBody)

	svc := front.New(frontCfg, tracer, app.Logger())

	app.GET("/process-users", svc.Handle)

	app.Run()

	_ = provider.Shutdown(context.Background())
}
