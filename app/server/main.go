package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/nboulif/doctrack/config"
	"github.com/nboulif/doctrack/internal/api/handlers"
	"github.com/nboulif/doctrack/internal/api/middleware"
	"github.com/nboulif/doctrack/internal/api/routes"
	"github.com/nboulif/doctrack/internal/logger"
	"github.com/nboulif/doctrack/internal/mailer"
	"github.com/nboulif/doctrack/internal/report"
	mongorepo "github.com/nboulif/doctrack/internal/repositories/mongo"
	"github.com/nboulif/doctrack/internal/services"
	"github.com/nboulif/doctrack/internal/storage"
	"github.com/nboulif/doctrack/internal/token"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	ctx := context.Background()

	client, err := config.ConnectMongo(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	db := client.Database(cfg.MongoDB)
	if err := config.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	candidates := mongorepo.NewCandidateRepo(db)
	tokens := mongorepo.NewTokenRepo(db)

	if n, err := tokens.DeleteExpired(ctx, time.Now().UTC()); err != nil {
		log.WithError(err).Warn("expired token cleanup failed")
	} else if n > 0 {
		log.WithField("deleted", n).Info("expired tokens removed")
	}

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.WithError(err).Fatal("storage init error")
	}

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.WithError(err).Fatal("mailer init error")
	}
	// a failed preflight is worth knowing about, not worth dying for
	if err := sender.Verify(ctx); err != nil {
		log.WithError(err).Warn("SMTP preflight failed")
	}

	issuer := token.NewIssuer(candidates, tokens, cfg.TokenSecret, cfg.TokenTTL, log)
	builder := report.NewBuilder(candidates, store, log)

	candidateSvc := services.NewCandidateService(candidates, store, log)
	workflowSvc := services.NewWorkflowService(candidates, issuer, builder, sender, cfg.Departments, cfg.BaseURL, log)
	importSvc := services.NewImportService(candidateSvc, log)

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Issuer:    issuer,
		Candidate: handlers.NewCandidateHandler(candidateSvc),
		Access:    handlers.NewAccessHandler(issuer, candidateSvc),
		Workflow:  handlers.NewWorkflowHandler(workflowSvc, builder),
		Import:    handlers.NewImportHandler(importSvc),
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	if err := sender.Close(); err != nil {
		log.WithError(err).Warn("mailer close error")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("MongoDB disconnect error")
	}
}
