package main

import (
	"context"
	"io"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/chat"
	"github.com/krishg0kul/genai-multi-agent/config"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/knowledge"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/krishg0kul/genai-multi-agent/memory"
	"github.com/krishg0kul/genai-multi-agent/metrics"
	"github.com/krishg0kul/genai-multi-agent/search"
	"github.com/krishg0kul/genai-multi-agent/tracing"
	"github.com/rs/zerolog/log"
)

// app holds everything a command needs, built once from the configuration.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	index   *knowledge.Index
	store   memory.Store
	chat    *chat.Service
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	client, err := llm.New(ctx, cfg.LLMClient, llm.Options{
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error initializing %s client", cfg.LLMClient)
	}
	a.closeIfCloser(client)
	completer := llm.Instrument(client, cfg.LLMClient, a.metrics)

	a.index, err = a.newIndex(ctx)
	if err != nil {
		return nil, err
	}

	searcher, err := search.New(cfg.Search, completer)
	if err != nil {
		return nil, err
	}
	if c, ok := searcher.(*search.CachedSearcher); ok {
		a.closers = append(a.closers, func(context.Context) error { c.Close(); return nil })
	}

	a.store, err = a.newStore()
	if err != nil {
		return nil, err
	}

	engine, err := agent.NewEngine(
		agent.Capabilities{Completer: completer, Retriever: a.index, Searcher: searcher},
		agent.Options{
			Domains:          agent.DescriptorsFromConfig(cfg.Domains),
			WebSearchScope:   cfg.WebSearchScope,
			TopK:             cfg.Knowledge.TopK,
			MaxSearchResults: cfg.Search.MaxResults,
			Observer:         a.metrics,
		})
	if err != nil {
		return nil, err
	}

	a.chat = chat.NewService(engine, a.store,
		chat.WithHistoryWindow(cfg.HistoryWindow),
		chat.WithObserver(a.metrics))

	log.Debug().
		Str("llm", cfg.LLMClient).
		Str("search", cfg.Search.Provider).
		Str("memory", cfg.Memory.Backend).
		Int("domains", len(cfg.Domains)).
		Msg("helpdesk initialized")
	return a, nil
}

func (a *app) newIndex(ctx context.Context) (*knowledge.Index, error) {
	kc := a.cfg.Knowledge
	opts := knowledge.IndexOptions{
		DataDir:      kc.DataDir,
		IndexDir:     kc.IndexDir,
		Patterns:     kc.Patterns,
		ChunkSize:    kc.ChunkSize,
		ChunkOverlap: kc.ChunkOverlap,
	}

	ec := a.cfg.Embedding
	switch ec.Provider {
	case "gemini":
		e, err := llm.NewGeminiEmbedder(ctx, ec.Model)
		if err != nil {
			return nil, errors.Wrapf(err, "error initializing Gemini embedder")
		}
		a.closeIfCloser(e)
		opts.Embedder, opts.EmbedderID = e, "gemini:"+ec.Model
	case "openai":
		e, err := llm.NewOpenAIEmbedder(ec.Model)
		if err != nil {
			return nil, errors.Wrapf(err, "error initializing OpenAI embedder")
		}
		opts.Embedder, opts.EmbedderID = e, "openai:"+ec.Model
	case "", "hash":
	default:
		return nil, errors.New("unknown embedding provider %q", ec.Provider)
	}
	return knowledge.NewIndex(opts), nil
}

func (a *app) newStore() (memory.Store, error) {
	switch a.cfg.Memory.Backend {
	case "sqlite":
		s, err := memory.OpenSQLite(a.cfg.Memory.Path)
		if err != nil {
			return nil, err
		}
		a.closeIfCloser(s)
		return s, nil
	default:
		return memory.NewFileStore(a.cfg.Memory.Dir)
	}
}

func (a *app) closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("error during shutdown")
		}
	}
	a.closers = nil
}
