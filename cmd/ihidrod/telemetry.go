package main

import (
	"context"
	"ihidro-assist/internal/components/serviceutil"
	"ihidro-assist/internal/components/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool, cfg telemetry.Config) telemetry.Otel {
	telemetry.InitSlog(verbose)

	otel, err := telemetry.Setup(ctx, "ihidrod", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	if otel.MeterProvider != nil {
		telemetry.InstrumentPerfStats(ctx)
	}
	return otel
}
