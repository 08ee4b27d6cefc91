package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/health"
	"github.com/datalabmx/inegimcp/internal/server"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "inegimcp",
	Short: "inegimcp - INEGI indicator and business-registry tools over MCP",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over stdio, or over HTTP/SSE with --listen",
	RunE:  runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential state",
	RunE:  runStatus,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the server exposes",
	RunE:  runTools,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the default config file",
	RunE:  runOnboard,
}

var listenFlag bool

func init() {
	serveCmd.Flags().BoolVar(&listenFlag, "listen", false, "serve over HTTP/SSE instead of stdio")
	rootCmd.AddCommand(serveCmd, statusCmd, toolsCmd, onboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.Health.Enabled {
		probeClient := upstream.NewClient(
			upstream.WithTimeout(time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second),
			upstream.WithRedacted(cfg.Indicators.Token, cfg.Denue.Token),
		)
		probes := health.NewService(cfg, probeClient)
		if err := probes.Start(ctx); err != nil {
			return fmt.Errorf("start health probes: %w", err)
		}
		defer probes.Stop()
	}

	srv := server.New(cfg, version)
	if listenFlag {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		return srv.RunHTTP(ctx, addr)
	}
	return srv.RunStdio(ctx)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Indicators API: %s\n", cfg.Indicators.BaseURL)
	fmt.Printf("Indicators token: %s\n", maskToken(cfg.Indicators.Token))
	fmt.Printf("DENUE API: %s\n", cfg.Denue.BaseURL)
	fmt.Printf("DENUE token: %s\n", maskToken(cfg.Denue.Token))
	fmt.Printf("Timeout: %ds\n", cfg.HTTP.TimeoutSeconds)
	fmt.Printf("Listen address: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Health probes: enabled=%v schedule=%s\n", cfg.Health.Enabled, cfg.Health.Schedule)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, tool := range server.New(cfg, version).Tools() {
		fmt.Printf("%s\n    %s\n", tool.Name, tool.Description)
	}
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Request free tokens at https://www.inegi.org.mx/servicios/api_indicadores.html")
	fmt.Println("  2. Set INEGI_INDICADORES_TOKEN and INEGI_DENUE_TOKEN (or edit the config file)")
	fmt.Println("  3. Run 'inegimcp serve' and register the command with your MCP client")
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "not set"
	}
	if len(token) <= 8 {
		return "set"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
