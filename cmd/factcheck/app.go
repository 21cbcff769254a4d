package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kaeva-factcheck/internal/config"
	"kaeva-factcheck/internal/credentials"
	"kaeva-factcheck/internal/gemini"
	"kaeva-factcheck/internal/media"
	"kaeva-factcheck/internal/ocr"
	"kaeva-factcheck/internal/pipeline"
	"kaeva-factcheck/internal/repository/memory"
	"kaeva-factcheck/internal/repository/postgresql"
	"kaeva-factcheck/internal/repository/redisstore"
	"kaeva-factcheck/internal/repository/sqlite"
	"kaeva-factcheck/internal/service"
	"kaeva-factcheck/internal/tiers"
	httptransport "kaeva-factcheck/internal/transport/http"
	"kaeva-factcheck/internal/version"
)

// app holds everything the commands share. Close releases pools and clients.
type app struct {
	cfg        *config.Config
	classifier *tiers.Classifier
	store      service.JobStore
	queue      service.Queue
	analyses   *service.AnalysisService

	tokens   pipeline.TokenSource
	verifier pipeline.ClaimVerifier
	media    *media.Analyzer
	ocr      *ocr.Extractor

	rdb     *redis.Client
	closers []func()
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: c}

	classifier, err := tiers.Load(c.Tiers.Path)
	if err != nil {
		return nil, err
	}
	a.classifier = classifier

	if err := a.initEngines(); err != nil {
		a.Close()
		return nil, err
	}
	if a.store, err = a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if a.queue, err = a.openQueue(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.analyses = service.NewAnalysisService(a.store, a.queue, c.Store.TTL)
	return a, nil
}

// initEngines builds the external-service clients. Missing credentials are
// not an error here: jobs fail with "credentials not configured" instead.
func (a *app) initEngines() error {
	c := a.cfg

	sa, err := c.ServiceAccount()
	if err != nil {
		return err
	}
	var projectID string
	if len(sa) > 0 {
		ex, err := credentials.NewExchanger(sa, credentials.WithScopes(c.Google.Scopes...))
		if err != nil {
			return err
		}
		a.tokens = ex
		projectID = ex.ProjectID()
	} else {
		zap.L().Warn("no service account configured; analyses will fail at the credentials step")
	}

	endpoint := c.Gemini.Endpoint
	if endpoint == "" && projectID != "" {
		endpoint = gemini.VertexEndpoint(projectID, c.Gemini.Location, c.Gemini.Model)
	}
	limit := rate.Inf
	if c.Gemini.RequestsPerSecond > 0 {
		limit = rate.Limit(c.Gemini.RequestsPerSecond)
	}
	a.verifier = gemini.NewClient(
		gemini.WithEndpoint(endpoint),
		gemini.WithAPIKey(c.Gemini.APIKey),
		gemini.WithHTTPClient(&http.Client{Timeout: c.Gemini.Timeout}),
		gemini.WithRateLimit(rate.NewLimiter(limit, 1)),
		gemini.WithTierLabels(a.classifier.Labels()),
	)

	if c.Inference.BaseURL != "" {
		hc := &http.Client{Timeout: c.Inference.Timeout}
		fetcher := media.NewFetcher(hc, c.Inference.MaxMediaBytes)
		a.media = media.NewAnalyzer(c.Inference.BaseURL, media.WithHTTPClient(hc), media.WithFetcher(fetcher))
		a.ocr = ocr.NewExtractor(c.Inference.BaseURL, ocr.WithHTTPClient(hc), ocr.WithFetcher(fetcher))
	} else {
		zap.L().Warn("inference.base_url not set; media analysis and OCR are disabled")
	}
	return nil
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.rdb != nil {
		return a.rdb, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "redis: ping %s", a.cfg.Redis.Addr)
	}
	a.rdb = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return rdb, nil
}

func (a *app) openStore(ctx context.Context) (service.JobStore, error) {
	c := a.cfg.Store
	log := zap.L().With(zap.String("store", c.Driver))

	switch c.Driver {
	case "memory":
		return memory.NewJobStore(), nil

	case "redis":
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.NewJobStore(rdb, a.cfg.Redis.KeyPrefix), nil

	case "postgres":
		pool, err := openPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if c.AutoMigrate {
			if err := postgresql.Migrate(ctx, pool); err != nil {
				return nil, err
			}
		}
		log.Info("job store ready", zap.String("dsn", config.RedactDSN(c.DatabaseURL)))
		return postgresql.NewJobRepository(pool), nil

	case "sqlite":
		st, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = st.Close() })
		if c.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		log.Info("job store ready", zap.String("path", c.SQLitePath))
		return st, nil
	}
	return nil, eris.Errorf("unknown store driver %q", c.Driver)
}

func (a *app) openQueue(ctx context.Context) (service.Queue, error) {
	q := a.cfg.Queue
	switch q.Driver {
	case "memory":
		return service.NewMemoryQueue(0), nil
	case "redis":
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return service.NewRedisQueue(rdb, q.Key, q.ProcessingKey), nil
	}
	return nil, eris.Errorf("unknown queue driver %q", q.Driver)
}

// orchestrator builds a pipeline reporting to tracker; nil tracker discards progress.
func (a *app) orchestrator(tracker pipeline.JobTracker) *pipeline.Orchestrator {
	d := pipeline.Deps{
		Tokens:     a.tokens,
		Verifier:   a.verifier,
		Classifier: a.classifier,
		Tracker:    tracker,
	}
	if a.media != nil {
		d.Media = a.media
	}
	if a.ocr != nil {
		d.OCR = a.ocr
	}
	return pipeline.New(d)
}

func (a *app) handler() http.Handler {
	var (
		mediaAnalyzer httptransport.MediaAnalyzer
		extractor     httptransport.TextExtractor
	)
	if a.media != nil {
		mediaAnalyzer = a.media
	}
	if a.ocr != nil {
		extractor = a.ocr
	}
	h := httptransport.NewHandler(a.analyses, mediaAnalyzer, extractor, httptransport.HealthInfo{
		Service:               "kaeva-factcheck",
		Version:               version.String(),
		CredentialsConfigured: a.tokens != nil,
		ModelKeyConfigured:    a.cfg.Gemini.APIKey != "",
		Store:                 a.cfg.Store.Driver,
		Queue:                 a.cfg.Queue.Driver,
	})
	return httptransport.Routes(h)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrapf(err, "postgres: ping %s", config.RedactDSN(dsn))
	}
	return pool, nil
}
