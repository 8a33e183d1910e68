package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/gymledger/internal/config"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/handler"
	"github.com/mansoorceksport/gymledger/internal/middleware"
	"github.com/mansoorceksport/gymledger/internal/repository"
	"github.com/mansoorceksport/gymledger/internal/repository/memory"
	"github.com/mansoorceksport/gymledger/internal/service"
	"github.com/mansoorceksport/gymledger/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config *config.Config
	// MongoDB is nil when the in-memory stores are selected
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	// Files receives billing archives; nil disables archiving
	Files   domain.FileRepository
	Metrics *telemetry.Metrics
	// Now overrides the clock, for tests
	Now func() time.Time
}

// App is the HTTP application together with the notification job it exposes,
// so the caller can also hand the job to the scheduler
type App struct {
	HTTP            *fiber.App
	NotificationJob *service.NotificationJob
}

type stores struct {
	members       domain.MemberRepository
	activities    domain.ActivityRepository
	payments      domain.PaymentRepository
	notifications domain.NotificationRepository
}

func newStores(deps AppDependencies, cache domain.CacheRepository) stores {
	var s stores
	if deps.MongoDB != nil {
		s = stores{
			members:       repository.NewMongoMemberRepository(deps.MongoDB),
			activities:    repository.NewMongoActivityRepository(deps.MongoDB),
			payments:      repository.NewMongoPaymentRepository(deps.MongoDB),
			notifications: repository.NewMongoNotificationRepository(deps.MongoDB),
		}
	} else {
		log.Println("Using in-memory stores; data is lost on restart")
		s = stores{
			members:       memory.NewMemberRepository(),
			activities:    memory.NewActivityRepository(),
			payments:      memory.NewPaymentRepository(),
			notifications: memory.NewNotificationRepository(),
		}
	}

	if cache != nil {
		s.activities = repository.NewCachedActivityRepository(s.activities, cache)
	}
	return s
}

// rulesFromConfig builds the pricing, look-ahead and clock shared by the services
func rulesFromConfig(cfg *config.Config, now func() time.Time) service.Rules {
	if now == nil {
		now = time.Now
	}
	return service.Rules{
		Location: cfg.Location(),
		Pricing: domain.PlanPricing{
			BasePrice:      cfg.Gym.BasePrice,
			PromotionPrice: cfg.Gym.PromotionPrice,
		},
		LookAhead: cfg.LookAhead(),
		Now:       now,
	}
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *App {
	cfg := deps.Config

	var cache domain.CacheRepository
	if deps.RedisClient != nil {
		cache = repository.NewRedisCacheRepository(deps.RedisClient)
	}
	repos := newStores(deps, cache)
	rules := rulesFromConfig(cfg, deps.Now)

	// Initialize services
	memberService := service.NewMemberService(repos.members, repos.activities, cache, rules)
	activityService := service.NewActivityService(repos.activities, cache)
	renewalService := service.NewRenewalService(repos.members, repos.payments, cache, deps.Metrics, rules)
	paymentService := service.NewPaymentService(repos.payments, repos.notifications, repos.activities, deps.Files, cache, rules)
	notificationService := service.NewNotificationService(repos.notifications, cache)
	notificationJob := service.NewNotificationJob(repos.members, repos.notifications, cache, deps.Metrics, rules)
	dashboardService := service.NewDashboardService(
		repos.members,
		repos.activities,
		repos.payments,
		repos.notifications,
		cache,
		cfg.Redis.DashboardCacheTTL,
		rules,
	)

	// Initialize handlers
	memberHandler := handler.NewMemberHandler(memberService, renewalService)
	activityHandler := handler.NewActivityHandler(activityService)
	paymentHandler := handler.NewPaymentHandler(paymentService, renewalService)
	notificationHandler := handler.NewNotificationHandler(notificationService, notificationJob)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	bodyLimitMB := cfg.Server.MaxBodySizeMB
	if bodyLimitMB <= 0 {
		bodyLimitMB = 4
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GymLedger API",
		BodyLimit:    int(bodyLimitMB * 1024 * 1024),
		ErrorHandler: handler.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.CorrelationHeader,
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(telemetry.FiberMiddleware())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "gymledger",
		})
	})

	if cfg.OTEL.PrometheusEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// ===========================================
	// STAFF API - /v1/* (requires 'admin' or 'staff' role)
	// ===========================================
	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyStaffToken(cfg.JWT.Secret))
	v1.Use(middleware.AuthorizeRole(domain.RoleAdmin, domain.RoleStaff))

	members := v1.Group("/members")
	members.Post("/", memberHandler.Create)
	members.Get("/", memberHandler.List)
	members.Get("/all", memberHandler.All)
	members.Get("/:id", memberHandler.Get)
	members.Put("/:id", memberHandler.Update)
	members.Put("/:id/renew", memberHandler.Renew)

	activities := v1.Group("/activities")
	activities.Post("/", activityHandler.Create)
	activities.Get("/", activityHandler.ListAvailable)
	activities.Get("/:id", activityHandler.Get)
	activities.Put("/:id", activityHandler.Update)

	payments := v1.Group("/payments")
	if deps.RedisClient != nil {
		payments.Post("/", middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Redis.IdempotencyTTL), paymentHandler.Create)
	} else {
		payments.Post("/", paymentHandler.Create)
	}
	payments.Get("/", paymentHandler.List)
	payments.Get("/current", paymentHandler.Current)
	payments.Get("/income-per-month", paymentHandler.IncomePerMonth)
	payments.Get("/:month/:year", paymentHandler.MonthlyBilling)
	payments.Post("/:month/:year/archive", paymentHandler.Archive)
	payments.Delete("/:id", paymentHandler.Delete)

	notifications := v1.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)
	notifications.Post("/run", notificationHandler.Run)

	v1.Get("/dashboard", dashboardHandler.Get)

	return &App{
		HTTP:            app,
		NotificationJob: notificationJob,
	}
}
