package handler

import (
	"context"
	"net/http"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services bundles the application services the API is built on.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// Deps are the infrastructure handles probed by /healthz. Redis is optional.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	AuthLimiter *middleware.RateLimiter
}

// NewRouter assembles the gin engine with every /api/v1 route.
func NewRouter(cfg *config.Config, svc Services, deps Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	// ClientIP keys the auth limiter, so forwarding headers count only from known proxies
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn().Err(err).Msg("ignoring invalid trusted proxies")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(methodNotAllowed)

	r.GET("/healthz", healthz(deps))
	if cfg.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	}

	api := r.Group("/api/v1")
	NewAuthHandler(svc.Auth).RegisterRoutes(api.Group("/auth"), limiter.Middleware())

	// everything below resolves an optional bearer token
	authed := api.Group("", middleware.Authenticate(svc.Auth))
	NewUserHandler(svc.Users).RegisterRoutes(authed.Group("/users"))
	NewCategoryHandler(svc.Categories).RegisterRoutes(authed.Group("/categories"))
	NewGenreHandler(svc.Genres).RegisterRoutes(authed.Group("/genres"))

	titles := authed.Group("/titles")
	NewTitleHandler(svc.Titles).RegisterRoutes(titles)
	reviews := titles.Group("/:title_id/reviews")
	NewReviewHandler(svc.Reviews).RegisterRoutes(reviews)
	NewCommentHandler(svc.Comments).RegisterRoutes(reviews.Group("/:review_id/comments"))

	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

func healthz(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if err := pingDB(ctx, deps.DB); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}

		if deps.Redis != nil {
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status, code := "ok", http.StatusOK
		if !healthy {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
