package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi/v1/response"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi/v1/validate"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

type signupRequest struct {
	UserID string `json:"user_id"`
}

// @Summary  	Sync one record
// @Description Syncs a single record immediately, or enqueues it when use_queue is set
// @Tags 		sync
// @Accept 		json
// @Produce 	json
// @Param 		request body dto.SyncSingle true "Table, record id, operation, queue flag"
// @Success 	200 {object} dto.ProcessResult
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	404 {object} response.Error "Record not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/sync/single [post]
func (r *V1) syncSingle(ctx *fiber.Ctx) error {
	var req dto.SyncSingle
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.TableName == "" || req.RecordID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "table_name and record_id are required")
	}

	if req.Operation != "" && !validate.AllowedOperations[string(req.Operation)] {
		return errorResponse(ctx, http.StatusBadRequest, "invalid operation. Allowed: INSERT, UPDATE, DELETE")
	}

	result, err := r.sync.SyncSingle(ctx.UserContext(), req)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "record not found")
		}
		if errors.Is(err, errs.ErrUnknownOperation) {
			return errorResponse(ctx, http.StatusBadRequest, "invalid operation")
		}
		r.logger.Error(err, "restapi - v1 - syncSingle")

		return errorResponse(ctx, http.StatusInternalServerError, "sync problems")
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

// @Summary  	Sync a new user signup
// @Description Mirrors a freshly created user to the destination and writes the assigned id back
// @Tags 		sync
// @Accept 		json
// @Produce 	json
// @Param 		request body signupRequest true "Local user id"
// @Success 	200 {object} response.Signup
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	404 {object} response.Error "User not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/sync/signup [post]
func (r *V1) syncSignup(ctx *fiber.Ctx) error {
	var req signupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.UserID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "user_id is required")
	}

	if err := r.sync.SyncSignup(ctx.UserContext(), req.UserID); err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		r.logger.Error(err, "restapi - v1 - syncSignup")

		return errorResponse(ctx, http.StatusInternalServerError, "sync problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Signup{UserID: req.UserID, Synced: true})
}

// @Summary  	Build a delivery request
// @Description Returns the HTTP request a delivery would send, with credentials redacted, without executing it
// @Tags 		sync
// @Accept 		json
// @Produce 	json
// @Param 		request body dto.BuildRequest true "Operation, table, optional destination id and data"
// @Success 	200 {object} dto.BuiltRequest
// @Failure 	400 {object} response.Error "Wrong parameters"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/requests/build [post]
func (r *V1) buildRequest(ctx *fiber.Ctx) error {
	var req dto.BuildRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.TableName == "" {
		return errorResponse(ctx, http.StatusBadRequest, "table_name is required")
	}

	if string(req.Operation) != http.MethodGet && !validate.AllowedOperations[string(req.Operation)] {
		return errorResponse(ctx, http.StatusBadRequest, "invalid operation. Allowed: INSERT, UPDATE, DELETE, GET")
	}

	built, err := r.sync.BuildRequest(ctx.UserContext(), req)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) || errors.Is(err, errs.ErrUnknownOperation) {
			return errorResponse(ctx, http.StatusBadRequest, "incomplete request parameters")
		}
		r.logger.Error(err, "restapi - v1 - buildRequest")

		return errorResponse(ctx, http.StatusInternalServerError, "build problems")
	}

	return ctx.Status(http.StatusOK).JSON(built)
}
