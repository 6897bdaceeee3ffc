// cmd/veridex/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

var cfg *Config

func main() {
	claimText := flag.String("claim", "", "verify a single claim and print the result instead of serving")
	webSearch := flag.Bool("web-search", true, "run the deep web search agent (slower, uses API credits)")
	forced := flag.String("agents", "", "comma-separated agents to force (wikipedia, political, health, finance)")
	envFile := flag.String("env", ".env", "path to the environment file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "No env file loaded from %s: %v\n", *envFile, err)
	}

	var err error
	cfg, err = LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := InitLogger(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer Logger().Close()

	Logger().Info("Veridex v%s starting", VERSION)

	pipeline := NewPipeline(cfg)

	if *claimText != "" {
		// The configured default applies unless -web-search was given.
		useWebSearch := cfg.WebSearchDefault
		flag.Visit(func(f *flag.Flag) {
			if f.Name == "web-search" {
				useWebSearch = *webSearch
			}
		})
		runOnce(pipeline, *claimText, useWebSearch, parseForced(*forced))
		return
	}

	serve(pipeline)
}

// runOnce verifies a single claim from the command line and prints a
// human-readable report.
func runOnce(pipeline *Pipeline, claimText string, webSearch bool, forced []string) {
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req := RunRequest{
		ClaimText:    claimText,
		UseWebSearch: webSearch,
		ForcedAgents: forced,
	}

	state, err := pipeline.Run(ctx, req, func(stage string) {
		fmt.Printf("  .. %s\n", stage)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		os.Exit(1)
	}

	printReport(state)
}

func printReport(state *PipelineState) {
	out := state.Output
	line := strings.Repeat("=", 60)

	fmt.Println("\n" + line)
	fmt.Println("--- VERIFICATION COMPLETE ---")
	fmt.Println(line)
	fmt.Printf("  Claim:    %s\n", out.OriginalClaim)
	fmt.Printf("  Verdict:  %s\n", out.Verdict)
	fmt.Printf("  Score:    %.1f (Confidence: %.2f)\n", out.Score.Score, out.Score.Confidence)
	fmt.Printf("  Summary:  %s\n", out.Score.Explanation)
	if out.TrueNews != "" {
		fmt.Printf("  Fact:     %s\n", out.TrueNews)
	}

	if len(state.AgentsUsed) > 0 {
		fmt.Println("\n  Data Collection Agents Used:")
		for _, name := range state.AgentsUsed {
			fmt.Printf("    - %s\n", name)
		}
	}
	if len(out.SourcesUsed) > 0 {
		fmt.Println("\n  Sources Found:")
		for _, src := range out.SourcesUsed {
			fmt.Printf("    - [%s](%s)\n", src.SourceName, src.URL)
		}
	}
	if state.Sentiment != nil {
		dist, _ := json.Marshal(state.Sentiment.Distribution)
		fmt.Printf("\n  Sentiment: %s %s\n", state.Sentiment.Primary, dist)
	}
	if state.Emotion != nil {
		dist, _ := json.Marshal(state.Emotion.Distribution)
		fmt.Printf("  Emotion:   %s %s\n", state.Emotion.Primary, dist)
	}
	fmt.Println(line)
}

// serve runs the HTTP API until interrupted.
func serve(pipeline *Pipeline) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewJobStore(time.Duration(cfg.JobTTLHours) * time.Hour)

	sweeper := NewSweeper(store, pipeline.ScrapeCache())
	if err := sweeper.Start(cfg.SweepCron); err != nil {
		Logger().Error("Sweeper not started: %v", err)
	} else {
		defer sweeper.Stop()
	}

	server := NewServer(cfg, pipeline, store)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		Logger().Info("Received signal %v, shutting down", sig)
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		Logger().Error("Server exited with error: %v", err)
		os.Exit(1)
	}
	Logger().Info("Shutdown complete")
}

func parseForced(raw string) []string {
	if raw == "" {
		return nil
	}
	var forced []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			forced = append(forced, p)
		}
	}
	return forced
}
