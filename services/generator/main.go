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
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

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
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/handlers"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/middleware"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/routes"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
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
		resource.WithAttributes(semconv.ServiceNameKey.String("generator-service")))
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
	logger := logging.New(logging.Config{Service: "generator", JSON: true})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	engine, err := profile_engine.NewEngine()
	if err != nil {
		log.Fatalf("FATAL: could not load the profile catalog: %v", err)
	}
	if dir := os.Getenv("PROFILE_OVERRIDE_DIR"); dir != "" {
		go func() {
			if err := engine.WatchOverrides(context.Background(), dir, logger.Slog()); err != nil {
				slog.Error("profile override watcher stopped", "error", err)
			}
		}()
	}

	ttlHours, _ := strconv.Atoi(envOr("DATASET_TTL_HOURS", "0"))
	dbCfg := store.DefaultConfig(envOr("DATASET_DB_PATH", "/data/generator"))
	dbCfg.Logger = logger.Slog()
	db, err := store.Open(dbCfg)
	if err != nil {
		log.Fatalf("FATAL: could not open the dataset store: %v", err)
	}
	defer db.Close()
	registry := store.NewRegistry(db, time.Duration(ttlHours)*time.Hour)

	server := &handlers.Server{
		Engine:   engine,
		Registry: registry,
		Metrics:  observability.DefaultMetrics,
		Logger:   logger.Slog(),
	}

	// InfluxDB is optional: without it the vitals endpoints answer 503
	// and everything else works.
	if influxToken := os.Getenv("INFLUXDB_TOKEN"); influxToken != "" {
		influxURL := envOr("INFLUXDB_URL", "http://influxdb:8086")
		influxOrg := envOr("INFLUXDB_ORG", "synthmed")
		influxBucket := envOr("INFLUXDB_BUCKET", "clinical-vitals")

		influxClient := influxdb2.NewClient(influxURL, influxToken)
		defer influxClient.Close()
		server.WriteAPI = influxClient.WriteAPIBlocking(influxOrg, influxBucket)
		server.QueryAPI = influxClient.QueryAPI(influxOrg)
		server.InfluxBucket = influxBucket
		slog.Info("InfluxDB configured", "url", influxURL, "org", influxOrg, "bucket", influxBucket)
	} else {
		slog.Info("INFLUXDB_TOKEN not set, vitals time-series endpoints disabled")
	}

	rps, _ := strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "50"), 64)
	burst, _ := strconv.Atoi(envOr("RATE_LIMIT_BURST", "100"))

	router := gin.Default()
	router.Use(otelgin.Middleware("generator-service"))
	router.Use(middleware.RequestLogger(logger.Slog()))
	routes.SetupRoutes(router, server, routes.Options{
		APIKey:    os.Getenv("SYNTH_API_KEY"),
		RateLimit: middleware.NewRateLimiter(rps, burst),
	})

	port := envOr("GENERATOR_PORT", "8201")
	slog.Info("Starting generator API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
