package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/tasks/service"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
	"github.com/taskpulse/taskpulse-go/pkg/middleware"
)

// TaskHandler serves {apiRoot}/:user_id/tasks. The owner of every operation is
// the verified subject; the path id only has to match it.
type TaskHandler struct {
	svc service.Service
}

func NewTaskHandler(svc service.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// RegisterTaskRoutes mounts the task routes on rg behind auth and owner checks.
func RegisterTaskRoutes(rg *gin.RouterGroup, ver middleware.Verifier, svc service.Service, extra ...gin.HandlerFunc) {
	h := NewTaskHandler(svc)
	chain := append([]gin.HandlerFunc{middleware.AuthMiddleware(ver), middleware.RequireOwner("user_id")}, extra...)
	g := rg.Group("/:user_id/tasks", chain...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:task_id", h.Get)
	g.PUT("/:task_id", h.Update)
	g.PATCH("/:task_id", h.SetCompleted)
	g.DELETE("/:task_id", h.Delete)
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid task id"})
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) fail(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": validationDetail(verrs)})
	default:
		logger.Errorf("tasks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func validationDetail(verrs validator.ValidationErrors) []gin.H {
	out := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, gin.H{"loc": []string{"body", fe.Field()}, "msg": fe.Field() + " failed " + fe.Tag() + " " + fe.Param()})
	}
	return out
}

func (h *TaskHandler) List(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	list, err := h.svc.List(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) Create(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	var in tasks.TaskCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), owner, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Get(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	id, ok := taskID(c)
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), owner, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Update(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	id, ok := taskID(c)
	if !ok {
		return
	}
	var in tasks.TaskUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	t, err := h.svc.Update(c.Request.Context(), owner, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) SetCompleted(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	id, ok := taskID(c)
	if !ok {
		return
	}
	var in struct {
		IsCompleted *bool `json:"is_completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "is_completed is required"})
		return
	}
	t, err := h.svc.SetCompleted(c.Request.Context(), owner, id, *in.IsCompleted)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	owner, _ := middleware.Subject(c)
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), owner, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
