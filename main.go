package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/mcp-tool-select-poc/server/internal/assistant"
	"github.com/mcp-tool-select-poc/server/internal/core"
	"github.com/mcp-tool-select-poc/server/internal/server"
	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

func main() {
	ctx := context.Background()

	// Load .env file for local runs
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := assistant.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})

	svc, err := assistant.New(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to start assistant service")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logx.Info().Str("addr", addr).Str("environment", env.String()).Msg("starting http server")
	if err := server.New(svc, env).Run(addr); err != nil {
		logx.Fatal().Err(err).Msg("http server stopped")
	}
}
