package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/handler"
	"github.com/atfitk/websystem-api/internal/middleware"
	"github.com/atfitk/websystem-api/internal/models"
	"github.com/atfitk/websystem-api/internal/service"
	"github.com/atfitk/websystem-api/pkg/config"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/logger"
	corsmiddleware "github.com/atfitk/websystem-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atfitk/websystem-api/pkg/middleware/requestid"
	"github.com/atfitk/websystem-api/pkg/response"
)

// jsonBodyLimit caps non-upload request bodies.
const jsonBodyLimit = 10 << 20

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth     *handler.AuthHandler
	Students *handler.StudentHandler
	Photos   *handler.PhotoHandler
	Exports  *handler.ExportHandler
	Metrics  *handler.MetricsHandler
}

// Deps are the collaborators the router needs beyond handlers.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Auth       *service.AuthService
	Metrics    *service.MetricsService
	UploadsDir string
}

// New builds the gin engine with the full middleware chain and routes.
func New(deps Deps, h Handlers) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logr.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Abort(c, appErrors.ErrInternal)
	}))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowedSuffixes: cfg.CORS.AllowedOriginSuffixes,
	}))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/metrics", h.Metrics.Prometheus)
	if deps.UploadsDir != "" {
		r.Static("/uploads", deps.UploadsDir)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.BodyLimit(jsonBodyLimit))
	api.GET("/health", h.Metrics.Health)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/me", middleware.JWT(deps.Auth), h.Auth.Me)

	students := api.Group("/students", middleware.JWT(deps.Auth))
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/export", h.Exports.Journal)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", middleware.RequireRoles(models.RoleDirector), h.Students.Delete)
	students.GET("/:id/card", h.Exports.Card)
	students.POST("/:id/photo", middleware.BodyLimit(cfg.Uploads.MaxFileBytes), h.Photos.Upload)
	students.DELETE("/:id/photo", h.Photos.Delete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.ErrorBody{Error: "Not found"})
	})

	return r
}
