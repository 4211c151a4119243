package ftsearch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/db"
	dbBadger "github.com/kailas-cloud/ftsearch/internal/db/badger"
	dbMemory "github.com/kailas-cloud/ftsearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/ftsearch/internal/db/redis"
	domcol "github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/facets"
	"github.com/kailas-cloud/ftsearch/internal/groups"
	"github.com/kailas-cloud/ftsearch/internal/ids"
	"github.com/kailas-cloud/ftsearch/internal/index"
	"github.com/kailas-cloud/ftsearch/internal/pinning"
	documentrepo "github.com/kailas-cloud/ftsearch/internal/repository/document"
	pinrulerepo "github.com/kailas-cloud/ftsearch/internal/repository/pinrule"
	"github.com/kailas-cloud/ftsearch/internal/sorter"
	"github.com/kailas-cloud/ftsearch/internal/tokenizer"
	batchuc "github.com/kailas-cloud/ftsearch/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/ftsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ftsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ftsearch/internal/usecase/search"
)

// Engine is the ftsearch entry point. It is safe for concurrent use.
type Engine struct {
	store     db.Store
	tokenizer *tokenizer.Tokenizer
	index     *index.Index
	ids       *ids.Mapper
	pins      *pinning.Engine
	pinRepo   *pinrulerepo.Repo
	docSvc    *documentuc.Service
	batchSvc  *batchuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
	logger    *zap.Logger
}

// New creates an Engine over the given schema and connects its storage.
func New(fields []Field, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("ftsearch: %w: at least one field is required", ErrInvalidSchema)
	}
	schema, err := buildSchema(fields)
	if err != nil {
		return nil, fmt.Errorf("ftsearch: %w", err)
	}
	tok, err := tokenizer.New(cfg.language)
	if err != nil {
		return nil, fmt.Errorf("ftsearch: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, cfg.readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("ftsearch: storage not ready: %w", err)
	}

	e, err := wireEngine(store, schema, tok, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	restored, err := e.docSvc.Restore(ctx)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("ftsearch: restore documents: %w", err)
	}
	if restored > 0 {
		cfg.logger.Info("Restored stored documents", zap.Int("documents", restored))
	}
	if err := e.loadPinRules(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("ftsearch: %w", err)
	}
	return e, nil
}

func createStore(cfg *engineConfig) (db.Store, error) {
	switch cfg.driver {
	case DriverMemory:
		return dbMemory.NewStore(), nil
	case DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("ftsearch: create redis store: %w", err)
		}
		return s, nil
	case DriverBadger:
		s, err := dbBadger.Open(cfg.badgerPath, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("ftsearch: open badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("ftsearch: unknown driver %q", cfg.driver)
	}
}

func wireEngine(
	store db.Store, schema domcol.Collection, tok *tokenizer.Tokenizer, cfg *engineConfig,
) (*Engine, error) {
	idx := index.New(schema, tok)
	mapper := ids.NewMapper()
	docRepo := documentrepo.New(store, cfg.keyPrefix)
	srt := sorter.New(schema, tokenizer.Tag(tok.Language()))
	pins := pinning.New(mapper)

	var searchOpts []searchuc.Option
	if cfg.poolSize > 0 {
		searchOpts = append(searchOpts, searchuc.WithPoolSize(cfg.poolSize))
	}
	if cfg.format != nil {
		searchOpts = append(searchOpts, searchuc.WithElapsedFormatter(cfg.format))
	}
	searchSvc, err := searchuc.New(searchuc.Deps{
		Index:     idx,
		Documents: docRepo,
		Sorter:    srt,
		IDs:       mapper,
		Pinning:   pins,
		Facets:    facets.New(idx, docRepo),
		Groups:    groups.New(idx, docRepo),
	}, searchOpts...)
	if err != nil {
		return nil, fmt.Errorf("ftsearch: %w", err)
	}
	idx.OnSchemaChange(searchSvc.InvalidateProperties)

	docSvc := documentuc.New(docRepo, idx, srt, mapper)
	batchSvc := batchuc.New(docSvc, docSvc)
	if cfg.maxBatchSize > 0 {
		batchSvc = batchSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Engine{
		store:     store,
		tokenizer: tok,
		index:     idx,
		ids:       mapper,
		pins:      pins,
		pinRepo:   pinrulerepo.New(store, cfg.keyPrefix),
		docSvc:    docSvc,
		batchSvc:  batchSvc,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(store, idx),
		logger:    cfg.logger,
	}, nil
}

// Close releases all resources.
func (e *Engine) Close() {
	if e.searchSvc != nil {
		e.searchSvc.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// Ping checks storage connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Schema returns the declared properties in declaration order.
func (e *Engine) Schema() []Field {
	return fromSchema(e.index.Schema())
}

// AddFields extends the schema. Documents inserted earlier are not
// re-indexed for the new properties.
func (e *Engine) AddFields(fields ...Field) error {
	if len(fields) == 0 {
		return errors.New("ftsearch: no fields to add")
	}
	tmp, err := buildSchema(fields)
	if err != nil {
		return err
	}
	return e.index.AddFields(tmp.Fields()...)
}

// Language returns the default tokenizer language.
func (e *Engine) Language() string { return e.tokenizer.Language() }

// Count returns the number of indexed documents.
func (e *Engine) Count(ctx context.Context) (int, error) {
	n, err := e.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// HealthReport is the outcome of Health.
type HealthReport struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
}

// Healthy reports whether every check passed.
func (r HealthReport) Healthy() bool { return r.Status == string(healthuc.Healthy) }

// Health checks storage and index availability.
func (e *Engine) Health(ctx context.Context) HealthReport {
	r := e.healthSvc.Check(ctx)
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthReport{Status: string(r.Status), Checks: checks, Documents: r.Documents}
}
