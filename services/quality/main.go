// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/logging"
	genmiddleware "github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/middleware"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/handlers"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/routes"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "synthmed-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("quality-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.New(logging.Config{Service: "quality", JSON: true})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	server := &handlers.Server{
		Metrics: observability.DefaultMetrics,
		Logger:  logger.Slog(),
	}

	rps, _ := strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "20"), 64)
	burst, _ := strconv.Atoi(envOr("RATE_LIMIT_BURST", "40"))

	router := gin.Default()
	router.Use(otelgin.Middleware("quality-service"))
	router.Use(genmiddleware.RequestLogger(logger.Slog()))
	routes.SetupRoutes(router, server, routes.Options{
		APIKey:    os.Getenv("SYNTH_API_KEY"),
		RateLimit: genmiddleware.NewRateLimiter(rps, burst),
	})

	port := envOr("QUALITY_PORT", "8202")
	slog.Info("Starting quality API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
