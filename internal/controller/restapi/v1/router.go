package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/usecase"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

func NewSyncRoutes(apiV1Group fiber.Router, sync usecase.SyncUseCase, l logger.Interface) {
	r := &V1{sync: sync, logger: l}

	{
		// Queue
		apiV1Group.Post("/queue/process", r.processQueue)
		apiV1Group.Post("/queue/process-data-api", r.processQueueDataAPI)
		apiV1Group.Post("/queue/retry", r.retryFailed)
		apiV1Group.Post("/queue/enqueue", r.enqueueItems)
		apiV1Group.Post("/queue/trigger", r.triggerProcessing)
		apiV1Group.Post("/queue/cleanup", r.cleanup)
		apiV1Group.Get("/queue/status", r.getStatus)

		// Sync
		apiV1Group.Post("/sync/single", r.syncSingle)
		apiV1Group.Post("/sync/signup", r.syncSignup)

		// Tooling
		apiV1Group.Post("/requests/build", r.buildRequest)
	}
}
