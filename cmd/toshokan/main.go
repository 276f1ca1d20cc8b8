// Package main is the Toshokan CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/chunker"
	"github.com/hyperjump/toshokan/internal/config"
	"github.com/hyperjump/toshokan/internal/embedding"
	"github.com/hyperjump/toshokan/internal/gitsync"
	"github.com/hyperjump/toshokan/internal/index"
	"github.com/hyperjump/toshokan/internal/models"
	"github.com/hyperjump/toshokan/internal/pipeline"
	"github.com/hyperjump/toshokan/internal/query"
	"github.com/hyperjump/toshokan/internal/server"
	"github.com/hyperjump/toshokan/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/toshokan/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Optional .env for credentials; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("toshokan version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Int("repositories", len(cfg.Repos.URLs)),
	)

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	defer embedder.Close()

	holder := index.NewHolder()
	descs := gitsync.Descriptors(cfg.Repos.URLs, cfg.Repos.Dir)
	pipe := pipeline.New(
		descs,
		gitsync.NewSynchronizer(cfg.Repos.Extensions, logger),
		chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap),
		embedder,
		index.NewBuilder(cfg.Vector.IndexType),
		holder,
		cfg.Embedding,
		logger,
	)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	interval := time.Duration(cfg.Repos.UpdateIntervalHours) * time.Hour
	sched := pipeline.NewScheduler(pipe, interval, logger)
	sched.Start(schedCtx)

	svc := query.NewService(holder, embedder, logger)
	srv := server.NewServer(svc, holder, pipe, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	schedCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	<-sched.Done()
}

// buildQueryText joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQueryText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	topK := fs.Int("top-k", 5, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: toshokan query [flags] <text>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	text := buildQueryText(fs.Args())
	if text == "" {
		fs.Usage()
		os.Exit(1)
	}

	response, err := queryViaHTTP(*serverURL, &models.QueryRequest{Text: text, TopK: *topK})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(response)
		return
	}
	if len(response.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, res := range response.Results {
		fmt.Printf("%d. [%.3f] %s (%s, chunk %d/%d)\n",
			i+1, res.Score, res.Metadata.Source, res.Metadata.Repo,
			res.Metadata.ChunkIndex+1, res.Metadata.TotalChunks)
		fmt.Printf("   %s\n", firstLine(res.Document))
	}
}

// firstLine returns the first non-empty line of text, truncated to 120 runes.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 120 {
			return string(runes[:120]) + "..."
		}
		return line
	}
	return ""
}

func queryViaHTTP(serverURL string, req *models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("connect to server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("Indexed chunks:  %v\n", status["indexed_chunks"])
	fmt.Printf("Pipeline state:  %v\n", status["pipeline_state"])
	fmt.Printf("Index built at:  %v\n", status["index_built_at"])
}

func printUsage() {
	fmt.Println(`Toshokan - semantic index over external documentation repositories

Usage:
  toshokan server [-config path] [-debug]   Start the API server and background indexer
  toshokan query [flags] <text>             Search the running server
  toshokan status [flags]                   Show index and pipeline status
  toshokan version                          Print version
  toshokan help                             Show this help`)
}
