package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
	"userstore.backend/internal/domain/repositories"
	"userstore.backend/internal/interfaces/http/middleware"
	"userstore.backend/internal/interfaces/http/response"
	"userstore.backend/internal/usecases"
)

// UserHandler handles user endpoints. Writes are queued and answered with
// 202 Accepted until the change set is committed.
type UserHandler struct {
	userUsecase *usecases.UserUsecase
}

// NewUserHandler creates a new user handler
func NewUserHandler(userUsecase *usecases.UserUsecase) *UserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

// ListUsers lists stored users
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	users, meta := h.userUsecase.List(c.Request.Context(), page, limit)
	response.Success(c, http.StatusOK, gin.H{
		"items": users,
		"meta":  meta,
	})
}

// GetUser gets a stored user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userUsecase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// CreateUser queues a new user
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input entities.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	user, err := h.userUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{
		"message": "User queued for insert",
		"user":    user,
		"pending": h.pending(c),
	})
}

// UpdateUser queues changes to a stored user
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var input entities.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	user, err := h.userUsecase.Update(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{
		"message": "User queued for update",
		"user":    user,
		"pending": h.pending(c),
	})
}

// DeleteUser queues the deletion of a stored user
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.userUsecase.Remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{
		"message": "User queued for delete",
		"pending": h.pending(c),
	})
}

// DeleteAllUsers queues the deletion of every stored user
// DELETE /api/v1/users
func (h *UserHandler) DeleteAllUsers(c *gin.Context) {
	n := h.userUsecase.RemoveAll(c.Request.Context())
	response.Success(c, http.StatusAccepted, gin.H{
		"message": "Users queued for delete",
		"queued":  n,
		"pending": h.pending(c),
	})
}

// BrowseTable reads every row of a table as users
// GET /api/v1/tables/:table
func (h *UserHandler) BrowseTable(c *gin.Context) {
	users, err := h.userUsecase.Browse(c.Request.Context(), c.Param("table"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": users})
}

// pending reads the queued change counts and adds them to the request log
func (h *UserHandler) pending(c *gin.Context) repositories.ChangeCounts {
	p := h.userUsecase.Pending()
	middleware.AddLogFields(c, middleware.PendingFields(p)...)
	return p
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, domainerrors.BadRequest("invalid user ID"))
		return 0, false
	}
	return id, true
}
