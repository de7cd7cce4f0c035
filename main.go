package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"medtech_outlook_agent/config"
	"medtech_outlook_agent/document"
	"medtech_outlook_agent/generator"
	"medtech_outlook_agent/server"
)

var verbose bool

func main() {
	configPath := flag.String("config", "config/config.json", "path to config file (json, yaml or toml)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	docPath := flag.String("doc", "", "markdown document to work on (overrides config.document.path)")
	modelName := flag.String("model", "", "model for chat, magics and improve (overrides config.default_model)")

	var opts cliOptions
	flag.StringVar(&opts.magic, "magic", "", "run a magic: keywords, summarize, sentiment, simplify, quiz, translate, title")
	flag.StringVar(&opts.chat, "chat", "", "ask a question about the document")
	flag.BoolVar(&opts.improve, "improve", false, "rewrite the document")
	flag.StringVar(&opts.instruction, "instruction", "", "instruction for --improve")
	flag.BoolVar(&opts.highlight, "highlight", false, "extract keywords and print the highlighted document")
	flag.BoolVar(&opts.dashboard, "dashboard", false, "print the dashboard summary")
	flag.StringVar(&opts.out, "out", "", "write the improved document here instead of printing it")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log, verbose)

	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *docPath != "" {
		cfg.Document.Path = *docPath
	}
	if *modelName != "" {
		cfg.DefaultModel = *modelName
	}
	model, err := generator.ParseModel(cfg.DefaultModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid model")
	}
	keywordModel, _ := generator.ParseModel(cfg.KeywordModel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm, err := buildLLM(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("llm setup failed")
	}
	if r, ok := llm.(*generator.Router); ok && !r.Has(model.Provider()) {
		logger.Warn().Str("model", string(model)).Msg("no credentials for the selected model's provider; requests will fail")
	}
	agent, err := generator.NewAgent(llm, keywordModel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("agent setup failed")
	}

	doc, err := loadDocument(ctx, cfg.Document, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load document")
	}

	// Web server mode
	if *serve {
		srv, err := server.New(agent, server.Options{
			DefaultModel:   model,
			RequestTimeout: cfg.RequestTimeout,
			Base:           doc,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("server setup failed")
		}
		if err := runServer(ctx, cfg.ServerAddr, srv.Routes(), logger); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	if err := opts.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	aiCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := runCLI(aiCtx, opts, doc, agent, model, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig, verbose bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// buildLLM resolves every provider's key once and registers the clients that
// have one. The clients never look at the environment themselves.
func buildLLM(ctx context.Context, cfg config.Config, logger zerolog.Logger) (generator.LLMClient, error) {
	if cfg.Mock {
		logger.Info().Msg("using mock llm")
		return &generator.MockLLM{}, nil
	}

	router := generator.NewRouter()
	if key := cfg.Gemini.ResolveAPIKey(os.Getenv); key != "" {
		g, err := generator.NewGeminiLLM(ctx, generator.LLMSettings{APIKey: key, BaseURL: cfg.Gemini.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		router.Register(generator.ProviderGemini, g)
	}
	if key := cfg.OpenAI.ResolveAPIKey(os.Getenv); key != "" {
		o, err := generator.NewOpenAILLM(generator.LLMSettings{APIKey: key, BaseURL: cfg.OpenAI.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		router.Register(generator.ProviderOpenAI, o)
	}
	if !router.Has(generator.ProviderGemini) && !router.Has(generator.ProviderOpenAI) {
		return nil, fmt.Errorf("no llm credentials: set %s or %s, or mock: true in config",
			cfg.Gemini.APIKeyEnv, cfg.OpenAI.APIKeyEnv)
	}
	return router, nil
}

func loadDocument(ctx context.Context, cfg config.DocumentConfig, logger zerolog.Logger) (*document.Document, error) {
	if cfg.Path == "" {
		return document.Default(), nil
	}
	doc, err := document.Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Watch {
		if err := document.Watch(ctx, cfg.Path, doc, logger); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func runServer(ctx context.Context, addr string, h http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
