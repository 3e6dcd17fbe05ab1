package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aura/internal/assist"
	"aura/internal/config"
	"aura/internal/dispatch"
	"aura/internal/logger"
	"aura/internal/mcp"
	"aura/internal/proto"
	"aura/internal/tool"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	backendURL string
	logLevel   string
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aura",
		Short: "Aura command core",
		Long:  "Natural-language command router for the Aura desktop assistant",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Capability backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	assistCmd := &cobra.Command{
		Use:   "assist [text]",
		Short: "Route one utterance through the pipeline and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAssist,
	}
	assistCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the line-delimited JSON protocol on stdio",
		RunE:  runServe,
	}

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool catalog as an MCP server on stdio",
		RunE:  runMCP,
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog",
		RunE:  runTools,
	}

	rootCmd.AddCommand(assistCmd, serveCmd, mcpCmd, toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, builds the logger, and wires the engine.
func setup() (*assist.Engine, *config.Config, *zap.Logger, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}

	registry := tool.Default()
	if err := registry.SelfTest(); err != nil {
		return nil, nil, nil, fmt.Errorf("tool catalog self-test failed: %w", err)
	}

	engine, err := assist.New(registry, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine, cfg, log, nil
}

func runAssist(cmd *cobra.Command, args []string) error {
	engine, _, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best-effort flush

	text := args[0]
	onProgress := func(ev dispatch.Event) {
		fmt.Fprintf(os.Stderr, "[%s] %d%% %s\n", ev.Phase, ev.Percent, ev.Message)
	}

	result := engine.Handle(cmd.Context(), text, onProgress)

	if jsonOutput {
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	if result.Success {
		fmt.Printf("✅ %s\n", result.Message)
	} else {
		fmt.Printf("❌ [%s] %s\n", result.ErrorCode, result.Error)
		for _, s := range result.Suggestions {
			fmt.Printf("   • %s\n", s.Message)
			if s.Example != "" {
				fmt.Printf("     e.g. %s\n", s.Example)
			}
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, _, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("protocol server listening on stdio")
	server := proto.NewServer(engine, os.Stdout, log)
	return server.Run(ctx, os.Stdin)
}

func runMCP(cmd *cobra.Command, args []string) error {
	engine, _, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcp.NewServer(engine, log).Run(ctx)
}

func runTools(cmd *cobra.Command, args []string) error {
	engine, _, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	for _, def := range engine.Registry().All() {
		fmt.Printf("%s — %s\n", def.Name, def.Description)
		for _, f := range def.Contract {
			req := "optional"
			if f.Required {
				req = "required"
			}
			fmt.Printf("    %s (%s, %s)", f.Name, f.Type, req)
			if len(f.Enum) > 0 {
				fmt.Printf(" one of %v", f.Enum)
			}
			fmt.Println()
		}
	}
	return nil
}
