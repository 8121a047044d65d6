package v1

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi/v1/response"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi/v1/validate"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
)

type processQueueRequest struct {
	BatchSize int    `json:"batch_size"`
	Table     string `json:"table"`
}

type retryFailedRequest struct {
	BatchSize int  `json:"batch_size"`
	Force     bool `json:"force"`
}

type enqueueRequest struct {
	CorrelationID string            `json:"correlation_id"`
	Items         []dto.EnqueueItem `json:"items"`
}

type triggerRequest struct {
	Table string `json:"table"`
}

// @Summary  	Process pending queue items
// @Description Runs one workflow-mode processing pass over pending items
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body processQueueRequest false "Batch size and optional table filter"
// @Success 	200 {object} dto.ProcessResult
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/process [post]
func (r *V1) processQueue(ctx *fiber.Ctx) error {
	return r.runProcessingPass(ctx, false)
}

// @Summary  	Process pending queue items via the direct object API
// @Description Runs one direct-object-mode processing pass over pending items
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body processQueueRequest false "Batch size and optional table filter"
// @Success 	200 {object} dto.ProcessResult
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/process-data-api [post]
func (r *V1) processQueueDataAPI(ctx *fiber.Ctx) error {
	return r.runProcessingPass(ctx, true)
}

func (r *V1) runProcessingPass(ctx *fiber.Ctx, dataMode bool) error {
	var req processQueueRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}
	}

	if req.BatchSize != 0 && (req.BatchSize < validate.MinBatchSize || req.BatchSize > validate.MaxBatchSize) {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("batch_size must be between %d and %d", validate.MinBatchSize, validate.MaxBatchSize))
	}

	var (
		result *dto.ProcessResult
		err    error
	)
	if dataMode {
		result, err = r.sync.ProcessQueueDataAPI(ctx.UserContext(), req.BatchSize, req.Table)
	} else {
		result, err = r.sync.ProcessQueue(ctx.UserContext(), req.BatchSize, req.Table)
	}
	if err != nil {
		r.logger.Error(err, "restapi - v1 - runProcessingPass")

		return errorResponse(ctx, http.StatusInternalServerError, "queue problems")
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

// @Summary  	Retry failed queue items
// @Description Re-drives items with remaining retry budget, honoring backoff unless forced
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body retryFailedRequest false "Batch size and force flag"
// @Success 	200 {object} dto.ProcessResult
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/retry [post]
func (r *V1) retryFailed(ctx *fiber.Ctx) error {
	var req retryFailedRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}
	}

	if req.BatchSize != 0 && (req.BatchSize < validate.MinBatchSize || req.BatchSize > validate.MaxBatchSize) {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("batch_size must be between %d and %d", validate.MinBatchSize, validate.MaxBatchSize))
	}

	result, err := r.sync.RetryFailed(ctx.UserContext(), req.BatchSize, req.Force)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - retryFailed")

		return errorResponse(ctx, http.StatusInternalServerError, "queue problems")
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

// @Summary  	Enqueue sync items
// @Description Persists ordered work items under one correlation id and triggers a processing pass
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body enqueueRequest true "Correlation id and ordered items"
// @Success 	201 {object} response.Enqueue
// @Failure 	400 {object} response.Error "Empty items or wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/enqueue [post]
func (r *V1) enqueueItems(ctx *fiber.Ctx) error {
	var req enqueueRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "items are required")
	}

	if len(req.Items) > validate.MaxEnqueueItems {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("cant enqueue more than %d items at once", validate.MaxEnqueueItems))
	}

	for _, item := range req.Items {
		if item.Table == "" || item.RecordID == "" {
			return errorResponse(ctx, http.StatusBadRequest, "table and record_id are required for every item")
		}
		if !validate.AllowedOperations[string(item.Operation)] {
			return errorResponse(ctx, http.StatusBadRequest, "invalid operation. Allowed: INSERT, UPDATE, DELETE")
		}
	}

	ids, err := r.sync.Enqueue(ctx.UserContext(), req.CorrelationID, req.Items)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - enqueueItems")

		return errorResponse(ctx, http.StatusInternalServerError, "queue problems")
	}

	r.sync.TriggerProcessing("")

	resp := response.Enqueue{QueueIDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.QueueIDs = append(resp.QueueIDs, id.String())
	}

	return ctx.Status(http.StatusCreated).JSON(resp)
}

// @Summary  	Trigger queue processing
// @Description Publishes a processing trigger for the background worker
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body triggerRequest false "Optional table filter"
// @Success 	202 {object} response.Trigger
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Router 		/v1/queue/trigger [post]
func (r *V1) triggerProcessing(ctx *fiber.Ctx) error {
	var req triggerRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}
	}

	r.sync.TriggerProcessing(req.Table)

	return ctx.Status(http.StatusAccepted).JSON(response.Trigger{Triggered: true, Table: req.Table})
}

// @Summary  	Queue status
// @Description Aggregated queue health view with optional per-table and recent-error sections
// @Tags 		queue
// @Produce 	json
// @Param 		by_table 	   query bool false "Include per-table breakdown"
// @Param 		recent_errors  query bool false "Include recent failed items"
// @Param 		error_limit    query int  false "Recent failed item limit"
// @Success 	200 {object} dto.StatusReport
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/status [get]
func (r *V1) getStatus(ctx *fiber.Ctx) error {
	req := dto.StatusRequest{
		IncludeByTable:      ctx.QueryBool("by_table"),
		IncludeRecentErrors: ctx.QueryBool("recent_errors"),
		ErrorLimit:          ctx.QueryInt("error_limit"),
	}

	if req.ErrorLimit < 0 || req.ErrorLimit > validate.MaxErrorLimit {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("error_limit must be between 0 and %d", validate.MaxErrorLimit))
	}

	report, err := r.sync.Status(ctx.UserContext(), req)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - getStatus")

		return errorResponse(ctx, http.StatusInternalServerError, "queue problems")
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// @Summary  	Clean up terminal queue items
// @Description Deletes completed, failed and skipped items older than the per-status cutoffs
// @Tags 		queue
// @Accept 		json
// @Produce 	json
// @Param 		request body dto.CleanupRequest false "Per-status age cutoffs in days, zero means default"
// @Success 	200 {object} dto.CleanupResult
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/queue/cleanup [post]
func (r *V1) cleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}
	}

	for _, days := range []int{req.CompletedOlderThanDays, req.FailedOlderThanDays, req.SkippedOlderThanDays} {
		if days != 0 && (days < validate.MinCleanupDays || days > validate.MaxCleanupDays) {
			return errorResponse(ctx, http.StatusBadRequest,
				fmt.Sprintf("cutoffs must be between %d and %d days", validate.MinCleanupDays, validate.MaxCleanupDays))
		}
	}

	result, err := r.sync.Cleanup(ctx.UserContext(), req)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - cleanup")

		return errorResponse(ctx, http.StatusInternalServerError, "queue problems")
	}

	return ctx.Status(http.StatusOK).JSON(result)
}
