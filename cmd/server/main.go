// Command server wires stores, services, and the HTTP router together and
// runs the API. Everything here is composition; business logic lives under
// internal/.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	contract "github.com/blckdfly/sphyre/contracts/registry"
	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/auth"
	"github.com/blckdfly/sphyre/internal/blobstore"
	"github.com/blckdfly/sphyre/internal/consent"
	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/issuer"
	"github.com/blckdfly/sphyre/internal/platform/config"
	"github.com/blckdfly/sphyre/internal/platform/httpserver"
	"github.com/blckdfly/sphyre/internal/platform/logger"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/platform/redis"
	"github.com/blckdfly/sphyre/internal/platform/workerpool"
	"github.com/blckdfly/sphyre/internal/presentation"
	"github.com/blckdfly/sphyre/internal/registry"
	"github.com/blckdfly/sphyre/internal/schema"
	"github.com/blckdfly/sphyre/internal/storage/postgres"
	httptransport "github.com/blckdfly/sphyre/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	var (
		credentialStore  credential.Store
		presentations    presentation.Store
		requestStore     presentation.RequestStore
		credRequestStore issuer.Store
		schemaStore      schema.Store
		consentStore     consent.Store
		userStore        auth.UserStore
		health           []httptransport.HealthChecker
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		credentialStore = postgres.NewCredentialStore(db)
		presentations = postgres.NewPresentationStore(db)
		requestStore = postgres.NewPresentationRequestStore(db)
		credRequestStore = postgres.NewCredentialRequestStore(db)
		schemaStore = postgres.NewSchemaStore(db)
		consentStore = postgres.NewConsentStore(db)
		userStore = postgres.NewUserStore(db)
		health = append(health, db)
		log.Info("using postgres storage")
	} else {
		credentialStore = credential.NewInMemoryStore()
		presentations = presentation.NewInMemoryStore()
		requestStore = presentation.NewInMemoryRequestStore()
		credRequestStore = issuer.NewInMemoryStore()
		schemaStore = schema.NewInMemoryStore()
		consentStore = consent.NewInMemoryStore()
		userStore = auth.NewInMemoryUserStore()
		log.Warn("no POSTGRES_DSN set, using in-memory storage")
	}

	var challengeStore auth.ChallengeStore = auth.NewInMemoryChallengeStore()
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		client, err := redis.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
		challengeStore = auth.NewRedisChallengeStore(client)
		health = append(health, client)
		log.Info("redis connected")
	}

	var reg contract.Contract
	if cfg.RegistryEndpoint != "" {
		reg = registry.NewHTTPClient(cfg.RegistryEndpoint)
		log.Info("using external credential registry", "endpoint", cfg.RegistryEndpoint)
	} else {
		reg = registry.NewInMemory()
		log.Warn("no REGISTRY_ENDPOINT set, using in-process registry")
	}
	if redisClient != nil {
		reg = registry.NewCached(reg, redisClient, log)
	}

	inbox := make(chan audit.Event, 256)
	recorder := audit.NewRecorder(inbox, log)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events forwarded to kafka", "topic", cfg.AuditTopic)
	}
	worker := audit.NewWorker(audit.NewInMemoryStore(), sink, inbox, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	m := metrics.New()
	policy := identity.NewMethodPolicy(cfg.DIDMethod)
	pool := workerpool.New(0)
	sessions := auth.NewSessions(cfg.SessionSigningKey)

	credentials := credential.NewService(
		credentialStore, blobstore.NewInMemoryStore(), reg, policy, m, recorder, log)
	presentationService := presentation.NewService(
		presentations, requestStore, credentials, policy, m, recorder, log)
	schemas := schema.NewService(schemaStore, reg, policy, recorder, log)
	issuerService := issuer.NewService(credRequestStore, credentials, schemas, policy, log)
	consents := consent.NewService(consentStore, policy, recorder, log)
	authService := auth.NewService(userStore, challengeStore, sessions, policy, recorder, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:          httptransport.NewAuthHandler(authService, log),
		Credentials:   httptransport.NewCredentialHandler(credentials, pool, log),
		Presentations: httptransport.NewPresentationHandler(presentationService, pool, log),
		Issuer:        httptransport.NewIssuerHandler(issuerService, pool, log),
		Schemas:       httptransport.NewSchemaHandler(schemas, log),
		Consents:      httptransport.NewConsentHandler(consents, log),
		Sessions:      authService,
		Health:        health,
		Logger:        log,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "did_method", cfg.DIDMethod)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
