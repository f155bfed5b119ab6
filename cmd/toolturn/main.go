package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/toolturn/toolturn"
	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/config"
	"github.com/toolturn/toolturn/docsearch"
	"github.com/toolturn/toolturn/extract"
	"github.com/toolturn/toolturn/imagegen"
	"github.com/toolturn/toolturn/internal/server"
	"github.com/toolturn/toolturn/logging"
	"github.com/toolturn/toolturn/mcpcap"
	"github.com/toolturn/toolturn/model"
	anthropicmodel "github.com/toolturn/toolturn/model/anthropic"
	openaimodel "github.com/toolturn/toolturn/model/openai"
	"github.com/toolturn/toolturn/session"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addrOverride string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)

	m, err := buildModel(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	caps, cleanup, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	orchestrator, err := toolturn.New(m, caps, func(o *toolturn.Options) {
		o.Preamble = cfg.Orchestration.Preamble
		o.MaxTurns = cfg.Orchestration.MaxTurns
		o.MaxParallel = cfg.Orchestration.MaxParallel
		o.SessionStore = store
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(orchestrator, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr, "capabilities", len(caps))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server.shutdown")
	return httpServer.Shutdown(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse([]byte("{}"))
	}
	return config.Load(path)
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		var opts []option.RequestOption
		if cfg.Model.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.Model.APIKey))
		}
		if cfg.Model.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Model.BaseURL))
		}
		client := openaisdk.NewClient(opts...)
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			if cfg.Model.Deployment != "" {
				o.Model = cfg.Model.Deployment
			}
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.Deployment != "" {
				o.Model = anthropic.Model(cfg.Model.Deployment)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Model.Provider)
	}
}

func buildCapabilities(ctx context.Context, cfg *config.Config, logger logging.Logger) ([]capability.Capability, func(), error) {
	var caps []capability.Capability
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	fetcher := &extract.HTTPFetcher{}

	if cfg.Capabilities.Extract.Enabled {
		caps = append(caps, extract.New(fetcher))
	}
	if cfg.Capabilities.DocSearch.Enabled {
		answerer, err := buildModel(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		caps = append(caps, docsearch.New(fetcher, answerer, func(o *docsearch.Options) {
			o.Deployment = cfg.Capabilities.DocSearch.Deployment
		}))
	}
	if cfg.Capabilities.ImageGen.Enabled {
		var opts []option.RequestOption
		if cfg.Model.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.Model.APIKey))
		}
		client := openaisdk.NewClient(opts...)
		caps = append(caps, imagegen.New(&client, func(o *imagegen.Options) {
			if cfg.Capabilities.ImageGen.Model != "" {
				o.Model = openaisdk.ImageModel(cfg.Capabilities.ImageGen.Model)
			}
		}))
	}

	for _, serverCfg := range cfg.Capabilities.MCP {
		srv, err := mcpcap.Connect(ctx, mcpcap.Config{
			Name:      serverCfg.Name,
			URL:       serverCfg.URL,
			Transport: serverCfg.Transport,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, srv.Close)
		caps = append(caps, srv.Capabilities()...)
		logger.Info("mcp.connected", "server", serverCfg.Name, "tools", len(srv.Capabilities()))
	}

	return caps, cleanup, nil
}

func buildStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Sessions.Backend {
	case "memory":
		return session.NewInMemoryStore(), func() {}, nil
	case "sqlite":
		store, err := session.OpenSQLite(cfg.Sessions.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend: %s", cfg.Sessions.Backend)
	}
}
