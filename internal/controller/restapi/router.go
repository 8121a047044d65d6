package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/splitleasesharath/splitlease-sub017/config"
	v1 "github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi/v1"
	"github.com/splitleasesharath/splitlease-sub017/internal/usecase"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

// @title Split Lease sync queue
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, sync usecase.SyncUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewSyncRoutes(apiV1Group, sync, l)
	}
}
