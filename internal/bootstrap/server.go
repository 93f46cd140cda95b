package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	"github.com/bizadmin/record-import/internal/domain/schema"
	"github.com/bizadmin/record-import/internal/infrastructure/repository"
	httpecho "github.com/bizadmin/record-import/internal/interfaces/http/echo"
)

// multipart framing on top of the raw file
const uploadBodySlack = 2 << 20

type ServerDeps struct {
	DB             *gorm.DB
	Storage        app.FileStorage
	Reader         app.SpreadsheetReader
	Queue          app.JobQueue
	Registry       *schema.Registry
	MaxUploadBytes int64
	StartImport    app.StartImportConfig
	Logger         *slog.Logger
}

func NewHTTPServer(deps ServerDeps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = app.DefaultMaxUploadBytes
	}

	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (deps.MaxUploadBytes+uploadBodySlack)>>10)))
	server.Use(requestLogger(deps.Logger))

	importJobRepo := repository.NewImportJobRepository(deps.DB)
	templateRepo := repository.NewImportTemplateRepository(deps.DB)

	importHandler := httpecho.NewImportHandler(
		app.NewUploadImportFile(deps.Storage, deps.Reader, deps.MaxUploadBytes),
		app.NewStartImport(importJobRepo, templateRepo, deps.Queue, deps.StartImport),
		app.NewListImportJobs(importJobRepo),
		app.NewGetImportJob(importJobRepo),
		app.NewListEntityFields(deps.Registry),
	)
	templateHandler := httpecho.NewTemplateHandler(
		app.NewSaveImportTemplate(templateRepo),
		app.NewListImportTemplates(templateRepo),
		app.NewDeleteImportTemplate(templateRepo),
	)

	httpecho.RegisterRoutes(server, importHandler, templateHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	})
}
