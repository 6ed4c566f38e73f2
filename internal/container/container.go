package container

import (
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	"github.com/oksasatya/social-account-service/internal/infrastructure/gcs"
	"github.com/oksasatya/social-account-service/internal/infrastructure/google"
	pginfra "github.com/oksasatya/social-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/social-account-service/internal/infrastructure/queue"
	"github.com/oksasatya/social-account-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/social-account-service/internal/infrastructure/search"
	"github.com/oksasatya/social-account-service/pkg/crypt"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router and workers auto-wire services from these singletons.

// notificationMarkTTL bounds how long a sent re-agreement mark is remembered.
const notificationMarkTTL = 30 * 24 * time.Hour

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	mailPub  *helpers.RabbitPublisher
	taskPub  *helpers.RabbitPublisher
	esClient *elasticsearch.Client
)

func SetConfig(c *config.Config)            { cfg = c }
func GetConfig() *config.Config             { return cfg }
func SetLogger(l *logrus.Logger)            { logger = l }
func GetLogger() *logrus.Logger             { return logger }
func SetPGPool(p *pgxpool.Pool)             { pgPool = p }
func GetPGPool() *pgxpool.Pool              { return pgPool }
func SetRedis(r *redis.Client)              { redisClient = r }
func GetRedis() *redis.Client               { return redisClient }
func SetGCS(s *storage.Client)              { gcsClient = s }
func GetGCS() *storage.Client               { return gcsClient }
func SetMailPub(p *helpers.RabbitPublisher) { mailPub = p }
func GetMailPub() *helpers.RabbitPublisher  { return mailPub }
func SetTaskPub(p *helpers.RabbitPublisher) { taskPub = p }
func GetTaskPub() *helpers.RabbitPublisher  { return taskPub }
func SetES(c *elasticsearch.Client)         { esClient = c }
func GetES() *elasticsearch.Client          { return esClient }
func SetJWT(m *helpers.JWTManager)          { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil {
		jwtManager = helpers.NewJWTManager(cfg.SigningKey)
	}
	return jwtManager
}

// Services groups the application services built from the singletons above.
type Services struct {
	Store      repo.Store
	Tokens     *application.TokenService
	Accounts   *application.AccountManager
	Agreements *application.AgreementRegistry
	Consents   *application.ConsentLedger
	Profiles   *application.ProfileService
	Notifier   *application.ReAgreementNotifier
}

var (
	servicesOnce sync.Once
	services     *Services
)

// GetServices builds the services once. Postgres, Redis and both RabbitMQ
// publishers must be set first. Optional integrations (Google,
// Elasticsearch, GCS) are left unset when their clients are missing.
func GetServices() *Services {
	servicesOnce.Do(func() { services = buildServices() })
	return services
}

func buildServices() *Services {
	store := pginfra.NewStore(pgPool)

	tokens := application.NewTokenService(store, GetJWT(), cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime, cfg.RefreshRotateThreshold, logger)
	tokens.BlacklistCheck = cfg.AccessBlacklistCheck

	cipher, err := crypt.New([]byte(cfg.UserEncryptionKey))
	if err != nil {
		logger.Fatalf("invalid USER_ENCRYPTION_KEY: %v", err)
	}

	var auditSink application.AuditSink
	if esClient != nil {
		auditSink = search.NewAuditSink(esClient, cfg.ESAuditIndex)
	}

	mail := queue.NewMailer(mailPub, cfg)

	accounts := &application.AccountManager{
		Store:         store,
		Tokens:        tokens,
		Verifications: redisstore.NewVerificationStore(redisClient, cfg.Env),
		States:        redisstore.NewOAuthStateStore(redisClient, cfg.Env),
		Mailer:        mail,
		Crypt:         cipher,
		Audit:         auditSink,
		Logger:        logger,
		Settings: application.AccountSettings{
			Env:                 cfg.Env,
			HashSalt:            cfg.EmailVerificationHashSalt,
			VerificationTTL:     cfg.EmailVerificationTimeout,
			SignupConfirmURL:    cfg.SignupConfirmURL,
			ResetPasswordURL:    cfg.ResetPasswordURL,
			OAuthStateTTL:       cfg.OAuthStateTTL,
			ExternalCallTimeout: cfg.ExternalCallTimeout,
		},
	}
	if provider, err := google.New(cfg); err == nil {
		accounts.Google = provider
	} else {
		logger.WithError(err).Warn("google login disabled")
	}

	agreements := &application.AgreementRegistry{Store: store, Tasks: queue.NewTaskQueue(taskPub), Audit: auditSink, Logger: logger}

	consents := &application.ConsentLedger{Store: store, Audit: auditSink, Logger: logger}

	profiles := &application.ProfileService{Store: store, Consents: consents, Logger: logger}
	if gcsClient != nil && cfg.GCSBucket != "" {
		profiles.Avatars = gcs.NewAvatarStorage(gcsClient, cfg.GCSBucket)
	}

	notifier := &application.ReAgreementNotifier{
		Store:  store,
		Mailer: mail,
		Ledger: redisstore.NewNotificationLedger(redisClient, cfg.Env, notificationMarkTTL),
		Logger: logger,
	}

	return &Services{
		Store:      store,
		Tokens:     tokens,
		Accounts:   accounts,
		Agreements: agreements,
		Consents:   consents,
		Profiles:   profiles,
		Notifier:   notifier,
	}
}
