package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/http/handlers"
	"github.com/geocoder89/marketplace/internal/http/middlewares"
	"github.com/geocoder89/marketplace/internal/media"
	"github.com/geocoder89/marketplace/internal/observability"
)

const msgRouteNotFound = "Route not found, please try another request."

// Deps is everything the API needs; cmd/api wires postgres, tests wire memory.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error

	Users    handlers.UsersStore
	Offers   handlers.OffersStore
	Checkout handlers.Purchaser
	Media    media.Uploader
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.Config.OTELServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	if d.Config.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	}
	r.Use(middlewares.RequireContentType(
		"application/json",
		"application/x-www-form-urlencoded",
		"multipart/form-data",
	))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": msgRouteNotFound})
	})

	// health + metrics
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := middlewares.NewAuthMiddleware(d.Users, log)
	authLimiter := middlewares.NewRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateWindow)
	paymentLimiter := middlewares.NewRateLimiter(d.Config.PaymentRateLimit, d.Config.PaymentRateWindow)

	usersHandler := handlers.NewUsersHandler(d.Users, d.Media, log)
	offersHandler := handlers.NewOffersHandler(d.Offers, d.Media, d.Config.Offers, log)
	paymentsHandler := handlers.NewPaymentsHandler(d.Checkout, log)

	// users
	r.POST("/user/signup", authLimiter.Middleware(middlewares.KeyByIP), usersHandler.SignUp)
	r.POST("/user/login", authLimiter.Middleware(middlewares.KeyByIP), usersHandler.Login)
	r.GET("/users", usersHandler.List)
	r.GET("/user/:id", usersHandler.GetByID)
	r.PUT("/user/update", auth.RequireAuth(), usersHandler.UpdateProfile)

	// offers
	r.POST("/offers/publish", auth.RequireAuth(), offersHandler.Publish)
	r.GET("/offers", offersHandler.Search)
	r.GET("/offers/search", offersHandler.Search)
	r.GET("/offer/:id", offersHandler.GetByID)
	r.PUT("/offer/update", auth.RequireAuth(), offersHandler.Update)

	// payment
	r.POST("/payment",
		auth.RequireAuth(),
		paymentLimiter.Middleware(middlewares.KeyByUserOrIP),
		paymentsHandler.Pay,
	)

	return r
}
