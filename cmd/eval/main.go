package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/chatbot"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/config"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/eval"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Exit codes: 0 all cases passed, 1 at least one case failed, 2 setup or
// unrecoverable error.
const (
	exitOK     = 0
	exitFailed = 1
	exitFatal  = 2
)

func main() {
	// All cleanup is deferred inside run; exiting here, after it returns,
	// guarantees the adapter shutdown and trace flush always happen.
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	var (
		testDir     = fs.String("test-dir", "", "Directory containing *.json test case files (env TEST_DATA_DIR, default test_data)")
		endpoint    = fs.String("endpoint", "", "Chatbot API endpoint URL (env CHATBOT_API_ENDPOINT, required)")
		apiKey      = fs.String("api-key", "", "Bearer token for the chatbot API (env CHATBOT_API_KEY)")
		evalModel   = fs.String("eval-model", "", "Evaluation model override for all metrics (env EVAL_MODEL)")
		sync        = fs.Bool("sync", false, "Run metrics sequentially instead of concurrently (env EVAL_RUN_ASYNC=false)")
		timeout     = fs.Int("timeout", 0, "Chatbot request timeout in seconds (default 30)")
		configPath  = fs.String("config", "", "Optional YAML configuration file")
		outputPath  = fs.String("output", "", "Path to save the JSON report (auto-generated under eval_results/ if not provided)")
		limitCases  = fs.Int("limit", 0, "Limit number of cases to run (0 = run all, useful for quick iteration)")
		verbose     = fs.Bool("v", false, "Verbose logging")
		enableTrace = fs.Bool("trace", false, "Export OpenTelemetry spans to stdout")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Evaluate a chatbot API against declarative JSON test cases.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run every case in ./test_data against a local chatbot:\n")
		fmt.Fprintf(os.Stderr, "  %s -endpoint http://localhost:8080/chat\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Custom test directory and evaluation model:\n")
		fmt.Fprintf(os.Stderr, "  %s -test-dir ./cases -endpoint http://localhost:8080/chat -eval-model gpt-4o-mini\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Quick iteration on the first 3 cases, sequential metrics:\n")
		fmt.Fprintf(os.Stderr, "  %s -endpoint http://localhost:8080/chat -limit 3 -sync\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Project defaults from a config file:\n")
		fmt.Fprintf(os.Stderr, "  %s -config eval.yaml\n\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	var fileCfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load config file", "path", *configPath, "error", err)
			return exitFatal
		}
		fileCfg = *loaded
	}

	// Precedence for every setting: flag > environment > config file > default.
	dir := resolve(*testDir, explicit["test-dir"], os.Getenv("TEST_DATA_DIR"), fileCfg.TestDir, "test_data")
	endpointURL := resolve(*endpoint, explicit["endpoint"], os.Getenv("CHATBOT_API_ENDPOINT"), fileCfg.Endpoint, "")
	key := resolve(*apiKey, explicit["api-key"], os.Getenv("CHATBOT_API_KEY"), fileCfg.APIKey, "")

	var model any
	switch {
	case explicit["eval-model"]:
		model = *evalModel
	case os.Getenv("EVAL_MODEL") != "":
		model = os.Getenv("EVAL_MODEL")
	case fileCfg.EvalModel != nil:
		model = fileCfg.EvalModel
	}

	runAsync := true
	switch {
	case explicit["sync"]:
		runAsync = !*sync
	case os.Getenv("EVAL_RUN_ASYNC") != "":
		runAsync = isTruthy(os.Getenv("EVAL_RUN_ASYNC"))
	case fileCfg.RunAsync != nil:
		runAsync = *fileCfg.RunAsync
	}

	timeoutSec := *timeout
	if !explicit["timeout"] {
		timeoutSec = fileCfg.TimeoutSeconds
	}

	output := resolve(*outputPath, explicit["output"], "", fileCfg.Output, "")
	if output == "" {
		timestamp := time.Now().Format("20060102_150405")
		output = filepath.Join("eval_results", fmt.Sprintf("chatbot_eval_%s.json", timestamp))
	}

	if endpointURL == "" {
		slog.Error("No chatbot endpoint configured; set -endpoint or CHATBOT_API_ENDPOINT")
		fs.Usage()
		return exitFatal
	}

	ctx := context.Background()

	if *enableTrace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			slog.Error("Failed to initialize trace exporter", "error", err)
			return exitFatal
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				slog.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	slog.Info("Loading test cases", "dir", dir)
	cases, err := testcase.LoadDir(dir)
	if err != nil {
		slog.Error("Failed to load test cases", "dir", dir, "error", err)
		return exitFatal
	}
	if len(cases) == 0 {
		slog.Error("No valid test cases found", "dir", dir)
		return exitFatal
	}

	if *limitCases > 0 && *limitCases < len(cases) {
		cases = cases[:*limitCases]
		slog.Info("Limited test cases for quick iteration", "running", len(cases))
	}

	adapter, err := chatbot.NewHTTP(chatbot.Config{
		Endpoint: endpointURL,
		APIKey:   key,
		Timeout:  time.Duration(timeoutSec) * time.Second,
	})
	if err != nil {
		slog.Error("Failed to build chatbot adapter", "error", err)
		return exitFatal
	}
	defer adapter.Shutdown()

	pipeline := eval.New(adapter, eval.Options{
		Model:         model,
		RunAsync:      runAsync,
		MaxConcurrent: fileCfg.MaxConcurrent,
	})

	report := pipeline.Run(ctx, cases)

	slog.Info("Saving evaluation report", "path", output)
	if err := eval.SaveReport(output, report); err != nil {
		slog.Error("Failed to save report", "error", err)
	}

	fmt.Fprintln(stdout)
	eval.WriteSummary(stdout, report)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Full report saved to: %s\n", output)

	if report.FailedCases > 0 {
		return exitFailed
	}
	return exitOK
}

// resolve applies the flag > env > config > default precedence for one
// string setting.
func resolve(flagValue string, flagSet bool, envValue, fileValue, fallback string) string {
	switch {
	case flagSet:
		return flagValue
	case envValue != "":
		return envValue
	case fileValue != "":
		return fileValue
	}
	return fallback
}

func isTruthy(v string) bool {
	switch v {
	case "true", "True", "TRUE", "1", "t", "y", "yes", "Yes":
		return true
	}
	return false
}
