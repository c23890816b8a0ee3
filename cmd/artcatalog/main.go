// Package main provides the CLI entry point for artcatalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/config"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/graph"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/logging"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/output"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/parser"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/respcache"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/server"
)

const shutdownTimeout = 15 * time.Second

var (
	outputPath string
	pretty     bool
	cacheRoot  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "artcatalog",
		Short: "Serve the images embedded in a workbook as a catalog",
		Long: `artcatalog extracts the images embedded in each worksheet of an xlsx
workbook, caches them as PNG and serves them as one category per worksheet.`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	buildCmd := &cobra.Command{
		Use:   "build [input.xlsx]",
		Short: "Build the catalog of a local workbook and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	buildCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	buildCmd.Flags().StringVar(&cacheRoot, "cache-root", "", "Media cache directory (default: CACHE_ROOT)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [input.xlsx]",
		Short: "Print static drawing diagnostics of a workbook package",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(serveCmd, buildCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	media, err := mediacache.New(cfg.CacheRoot, logger)
	if err != nil {
		return err
	}

	var responses respcache.Store
	if cfg.RedisURL != "" {
		redisStore, err := respcache.NewRedisStore(respcache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		responses = redisStore
		logger.Info("catalog responses cached in redis")
	} else {
		responses = respcache.NewMemoryStore(nil)
	}
	defer responses.Close()

	graphClient := graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		FileURL:      cfg.Graph.FileURL,
		DriveID:      cfg.Graph.DriveID,
		ItemID:       cfg.Graph.ItemID,
		SiteID:       cfg.Graph.SiteID,
		FilePath:     cfg.Graph.FilePath,
		Scopes:       cfg.Graph.Scopes,
		BaseURL:      cfg.Graph.BaseURL,
		AuthorityURL: cfg.Graph.AuthorityURL,
		Timeout:      cfg.Graph.Timeout,
	}, nil, logger)

	metrics := server.NewMetrics()
	svc, err := artcatalog.New(artcatalog.Options{
		Mode:              artcatalog.SourceMode(cfg.SourceMode),
		LocalPath:         cfg.LocalXLSXPath,
		GraphWorkbookPath: cfg.Graph.WorkbookPath,
		Fetcher:           graphClient,
		Media:             media,
		Responses:         responses,
		CatalogTTL:        cfg.CatalogCacheTTL,
		URLPrefix:         cfg.APIPrefix,
		Logger:            logger,
		Observer:          metrics,
	})
	if err != nil {
		return err
	}

	srv := server.New(svc, &server.Config{
		APIPrefix:       cfg.APIPrefix,
		AllowedOrigins:  cfg.AllowedOrigins,
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsEndpoint: cfg.MetricsEndpoint,
		Metrics:         metrics,
		GraphStatus:     graphClient,
		Logger:          logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort("", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", addr,
			"source_mode", cfg.SourceMode,
			"cache_root", cfg.CacheRoot,
			"api_prefix", cfg.APIPrefix,
		)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	// Validate input file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	root := cacheRoot
	if root == "" {
		root = cfg.CacheRoot
	}

	media, err := mediacache.New(root, logger)
	if err != nil {
		return err
	}
	svc, err := artcatalog.New(artcatalog.Options{
		Mode:      artcatalog.SourceLocal,
		LocalPath: inputPath,
		Media:     media,
		URLPrefix: cfg.APIPrefix,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	result, err := svc.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("catalog build failed: %w", err)
	}

	jsonData, err := output.ToJSON(result, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(jsonData)
}

func runInspect(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read workbook: %w", err)
	}

	report, err := parser.AnalyzePackage(data)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	jsonData, err := output.ToJSON(report, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(jsonData)
}

func writeOutput(jsonData []byte) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Println(string(jsonData))
	return nil
}
