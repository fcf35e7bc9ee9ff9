package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"userstore.backend/internal/interfaces/http/middleware"
	"userstore.backend/internal/interfaces/http/response"
	"userstore.backend/internal/usecases"
)

// ChangeHandler exposes the pending change set
type ChangeHandler struct {
	userUsecase *usecases.UserUsecase
}

func NewChangeHandler(userUsecase *usecases.UserUsecase) *ChangeHandler {
	return &ChangeHandler{userUsecase: userUsecase}
}

// GetPending returns the queued change counts
// GET /api/v1/changes
func (h *ChangeHandler) GetPending(c *gin.Context) {
	pending := h.userUsecase.Pending()
	response.Success(c, http.StatusOK, gin.H{
		"pending": pending,
		"total":   pending.Total(),
	})
}

// Commit replays every queued change in one transaction
// POST /api/v1/changes/commit
func (h *ChangeHandler) Commit(c *gin.Context) {
	n, err := h.userUsecase.SaveChanges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AddLogFields(c, zap.Int64("rows_affected", n))
	response.Success(c, http.StatusOK, gin.H{
		"message":      "Changes committed",
		"rowsAffected": n,
	})
}
