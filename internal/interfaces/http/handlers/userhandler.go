package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/dto"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
	"github.com/plexpatrol/plexpatrol/internal/shared/utils"
)

type UserHandler struct {
	store  UserStore
	logger logger.Interface
}

func NewUserHandler(store UserStore, log logger.Interface) *UserHandler {
	return &UserHandler{store: store, logger: log}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, dto.ToUserResponseList(users), len(users))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", dto.ToUserResponse(u))
}

// UpdateUser applies a partial policy update to a known account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update user", "user_id", id, "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}
	overrides := req.ToOverrides()
	if overrides.IsEmpty() {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("at least one field must be provided"))
		return
	}

	ctx := c.Request.Context()
	existing, err := h.store.GetUser(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if err := h.store.UpsertUser(ctx, id, existing.DisplayName(), overrides); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	updated, err := h.store.GetUser(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("user policy updated", "user_id", id)
	utils.SuccessResponse(c, http.StatusOK, "user updated", dto.ToUserResponse(updated))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}
