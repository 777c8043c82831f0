// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command blockrund runs the workflow execution engine as a long-lived
// daemon: an HTTP API in front of the Run Orchestration Service, backed by
// a SQLite-persisted workflow store.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockrun/blockrun/internal/httpapi"
	"github.com/blockrun/blockrun/internal/log"
	"github.com/blockrun/blockrun/pkg/events"
	"github.com/blockrun/blockrun/pkg/llm"
	"github.com/blockrun/blockrun/pkg/orchestration"
	"github.com/blockrun/blockrun/pkg/security/codesandbox"
	"github.com/blockrun/blockrun/pkg/workflow"
	"github.com/blockrun/blockrun/pkg/workflow/handlers"
	"github.com/blockrun/blockrun/pkg/workflow/sqlitestore"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		dbPath      = flag.String("db", "blockrun.db", "Path to the SQLite workflow store")
		listenAddr  = flag.String("listen", "127.0.0.1:8088", "HTTP listen address")
		masterKeyHex = flag.String("master-key-env", "BLOCKRUN_MASTER_KEY", "Environment variable holding the 32-byte paused-run-state encryption key, hex-encoded")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("blockrund %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	masterKey, err := loadMasterKey(*masterKeyHex)
	if err != nil {
		logger.Error("failed to load master key", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := sqlitestore.New(sqlitestore.Config{Path: *dbPath, MasterKey: masterKey})
	if err != nil {
		logger.Error("failed to open workflow store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	registry := buildRegistry()
	broadcaster := events.NewBroadcaster()
	svc := orchestration.NewService(store, registry, broadcaster)

	server := httpapi.NewServer(svc, store, broadcaster)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("blockrund listening", slog.String("addr", *listenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadMasterKey(envVar string) ([]byte, error) {
	hexKey := os.Getenv(envVar)
	if hexKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set; generate one with workspace.GenerateKey", envVar)
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode %s as hex: %w", envVar, err)
	}
	if len(key) != 32 {
		return nil, errors.New("master key must decode to exactly 32 bytes")
	}
	return key, nil
}

// buildRegistry registers every built-in block handler. The code handler's
// fetch binding and the fetch handler share one SSRF-filtered HTTP client so
// both surfaces enforce the same policy.
func buildRegistry() *workflow.Registry {
	registry := workflow.NewRegistry()

	fetchHandler := handlers.NewFetchHandler()
	registry.Register("fetch", fetchHandler)

	var sandboxFetch codesandbox.FetchFunc = func(ctx context.Context, url string, opts map[string]any) (map[string]any, error) {
		block := workflow.Block{ID: "fetch", Logic: map[string]any{"fetch_url": url}}
		for k, v := range opts {
			block.Logic["fetch_"+k] = v
		}
		result, err := fetchHandler.Handle(ctx, block, workflow.NewWorkflowContext(&workflow.Run{}))
		if err != nil {
			return nil, err
		}
		entry, _ := result.StateDelta[block.ID].(map[string]any)
		return entry, nil
	}

	registry.Register("code", handlers.NewCodeHandler(sandboxFetch))
	registry.Register("math", handlers.NewMathHandler())
	registry.Register("string", handlers.NewStringHandler())
	registry.Register("array", handlers.NewArrayHandler())
	registry.Register("object", handlers.NewObjectHandler())
	registry.Register("date", handlers.NewDateHandler())
	registry.Register("normalize", handlers.NewNormalizeHandler())
	registry.Register("sleep", handlers.NewSleepHandler())
	registry.Register("agent", handlers.NewAgentHandler(llm.NewRegistry()))
	registry.Register("location", handlers.NewLocationHandler())

	return registry
}
