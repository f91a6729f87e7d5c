package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"studynotes/config"
	"studynotes/database"
	"studynotes/pkg/ai"
	"studynotes/pkg/logger"
	"studynotes/pkg/metrics"
	"studynotes/pkg/validation"
	"studynotes/router"

	authCtrlImp "studynotes/pkg/auth/controllerImp"
	healthCtrlImp "studynotes/pkg/health/controllerImp"

	chatCtrlImp "studynotes/pkg/chat/controllerImp"
	chatSvcImp "studynotes/pkg/chat/serviceImp"

	noteCtrlImp "studynotes/pkg/note/controllerImp"
	noteRepoImp "studynotes/pkg/note/repositoryImp"
	noteSvcImp "studynotes/pkg/note/serviceImp"

	quizCtrlImp "studynotes/pkg/quiz/controllerImp"
	quizSvcImp "studynotes/pkg/quiz/serviceImp"
)

const shutdownTimeout = 15 * time.Second

func migrateAction(_ context.Context, cmd *cli.Command) error {
	cfg := config.Load(cmd.String("env"))
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.WithField("db_path", cfg.DBPath).Info("schema up to date")
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	// 1) Config + logging
	cfg := config.Load(cmd.String("env"))
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)

	// 2) DB (sqlite) + automigrate
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("close database")
		}
	}()
	if err := database.Migrate(db); err != nil {
		return err
	}

	// 3) Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	e, enricher := buildServer(cfg, db, log, m, reg)

	// 4) Start
	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// 5) Drain: HTTP first, then pending enrichment; the DB closes on return
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := enricher.Wait(sctx); err != nil {
		log.WithError(err).Warn("embedding enrichment still running at exit")
	}
	return nil
}

// buildServer wires repositories, services and controllers onto a new echo instance.
func buildServer(cfg config.AppConfig, db *gorm.DB, log *logrus.Logger, m *metrics.Metrics, reg prometheus.Gatherer) (*echo.Echo, *noteSvcImp.Enricher) {
	// LLM (mock fallback)
	var (
		llm     ai.Client
		backend string
	)
	if cfg.HasLLM() {
		llm = ai.NewOpenAI(ai.OpenAIOptions{
			APIKey:             cfg.LLM.APIKey,
			Endpoint:           cfg.LLM.Endpoint,
			Model:              cfg.LLM.Model,
			EmbeddingModel:     cfg.LLM.EmbeddingModel,
			EmbeddingDimension: cfg.LLM.EmbeddingDimension,
			Temperature:        &cfg.LLM.Temperature,
		})
		backend = "openai:" + cfg.LLM.Model
	} else {
		log.Warn("LLM_API_KEY not set, using the offline mock generator")
		llm = ai.NewMock()
		backend = "mock"
	}
	gen := ai.NewGenerator(llm,
		ai.WithQuizSize(cfg.QuizQuestionCount),
		ai.WithTimeout(cfg.GenerationTimeout),
		ai.WithMetrics(m),
		ai.WithLogger(log),
	)

	// tiktoken downloads its encoding on first load; only bother with a real provider
	var counter ai.TokenCounter = ai.EstimateCounter{}
	if cfg.HasLLM() {
		if tc, err := ai.NewTiktokenCounter(); err != nil {
			log.WithError(err).Warn("tiktoken unavailable, estimating context size from rune count")
		} else {
			counter = tc
		}
	}

	// Notes
	noteRepo := noteRepoImp.New(db)
	enricher := noteSvcImp.NewEnricher(noteRepo, gen, noteSvcImp.EnricherOptions{
		Async:   cfg.EmbedAsync,
		Timeout: cfg.GenerationTimeout,
		Logger:  log,
		Metrics: m,
	})
	e := echo.New()
	e.Validator = validation.NewRequestValidator()
	noteSvc := noteSvcImp.New(noteRepo, e.Validator, enricher, gen, log)

	// Chat + quiz
	chatSvc := chatSvcImp.New(
		chatSvcImp.NewContextAssembler(noteRepo, cfg.ContextNoteLimit, cfg.ContextMaxTokens, counter),
		gen,
		log,
	)
	quizSvc := quizSvcImp.New(noteRepo, gen, log)

	router.New(
		e,
		router.Options{
			EnableDevLogin: cfg.EnableDevLogin,
			Logger:         log,
			Metrics:        m,
			Gatherer:       reg,
		},
		noteCtrlImp.New(noteSvc, log),
		quizCtrlImp.New(quizSvc, log),
		chatCtrlImp.New(chatSvc, log, cfg.AnonymousChat),
		authCtrlImp.NewAuthController(),
		healthCtrlImp.NewHealthCtrl(db, backend),
	)
	return e, enricher
}
