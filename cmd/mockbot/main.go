package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/httpx"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/mockbot"
)

// initMeterProvider initializes an OpenTelemetry MeterProvider with a stdout
// exporter, flushing every 10 seconds.
func initMeterProvider() (*metric.MeterProvider, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter,
			metric.WithInterval(10*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)
	return meterProvider, nil
}

func main() {
	var (
		addr    = flag.String("addr", ":8080", "Address to listen on")
		shape   = flag.String("shape", mockbot.ShapeFlat, "Response shape: flat, chat or plain")
		docs    = flag.String("context", "", "Comma-separated retrieved context documents to return with each reply")
		verbose = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	meterProvider, err := initMeterProvider()
	if err != nil {
		slog.Error("Failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown meter provider", "error", err)
		}
	}()

	var contextDocs []string
	if *docs != "" {
		for _, doc := range strings.Split(*docs, ",") {
			contextDocs = append(contextDocs, strings.TrimSpace(doc))
		}
	}

	handler := mockbot.New(mockbot.Options{
		Shape:   *shape,
		Context: contextDocs,
	})
	handler.Use(
		httpx.Logger(),
		httpx.Recovery(),
		httpx.Metrics(),
		httpx.Tracing(),
	)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Starting mock chatbot", "addr", *addr, "shape", *shape)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdown
	slog.Info("Shutting down mock chatbot...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	slog.Info("Mock chatbot stopped")
}
