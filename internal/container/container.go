package container

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/eventix/internal/config"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/middleware"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/payments"
	"github.com/joshua-takyi/eventix/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories groups the storage backends the services depend on.
type Repositories struct {
	Catalog      models.CatalogRepo
	Bookings     models.BookingRepo
	Dashboard    models.DashboardRepo
	Profiles     models.ProfileRepo
	RoleRequests models.RoleRequestRepo
	Audit        models.AuditRepo
	Drafts       models.DraftRepo
}

// NewRepositories wires the production stores: Supabase REST for catalog and
// profiles, Postgres for the booking ledger, MongoDB for the audit trail and
// Redis for wizard drafts.
func NewRepositories(cfg *config.Config, supabaseClient *supabase.Client, pool *pgxpool.Pool, redisClient *redis.Client, mongoDBClient *mongo.Client) Repositories {
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	pg := models.PostgresNewRepo(pool)
	mdb := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)
	rdb := models.RedisNewRepo(redisClient)

	return Repositories{
		Catalog:      supa,
		Bookings:     pg,
		Dashboard:    supa,
		Profiles:     supa,
		RoleRequests: supa,
		Audit:        mdb,
		Drafts:       rdb,
	}
}

// MemoryRepositories backs every repository with one in-process store.
func MemoryRepositories(store *models.MemoryStore) Repositories {
	return Repositories{
		Catalog:      store,
		Bookings:     store,
		Dashboard:    store,
		Profiles:     store,
		RoleRequests: store,
		Audit:        store,
		Drafts:       store,
	}
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Redis backs idempotency and rate limiting; nil disables both.
	Redis *redis.Client

	Auth               *middleware.Authenticator
	Gateway            *payments.SignedOrderGateway
	UserService        *services.UserService
	CatalogService     *services.CatalogService
	CheckoutService    *services.CheckoutService
	BookingFlowService *services.BookingFlowService
	DashboardService   *services.DashboardService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	repos Repositories,
	redisClient *redis.Client,
	validator helpers.TokenValidator,
) (*Container, error) {
	gateway, err := payments.NewSignedOrderGateway(cfg.PaymentKeyID, cfg.PaymentKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	checkout := services.NewCheckoutService(
		repos.Catalog,
		repos.Bookings,
		repos.Audit,
		gateway,
		cfg.PaymentCurrency,
		cfg.PendingBookingTTL,
		logger,
	)
	if cfg.StripeEnabled() {
		stripeGateway, err := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to configure stripe: %w", err)
		}
		checkout.WithStripe(stripeGateway)
	}

	userService := services.NewUserService(repos.Profiles, repos.RoleRequests, cfg.AdminEmails)

	return &Container{
		Config:             cfg,
		Logger:             logger,
		Redis:              redisClient,
		Auth:               middleware.NewAuthenticator(validator, userService, logger, cfg.IsProduction()),
		Gateway:            gateway,
		UserService:        userService,
		CatalogService:     services.NewCatalogService(repos.Catalog),
		CheckoutService:    checkout,
		BookingFlowService: services.NewBookingFlowService(repos.Drafts, repos.Catalog, repos.Bookings, checkout, cfg.BookingDraftTTL),
		DashboardService:   services.NewDashboardService(repos.Dashboard, repos.Audit),
	}, nil
}
