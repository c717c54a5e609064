package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/http/middleware"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/viewcache"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, dispatch, err := h.taskService.Create(c.Request.Context(), service.CreateTaskParams{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     model.TaskPriority(req.Priority),
		TrialID:      req.TrialID,
		SiteID:       req.SiteID,
		AssignedTo:   req.AssignedTo,
		AssignedRole: req.AssignedRole,
		DueDate:      req.DueDate,
	})
	if err != nil {
		respondError(c, err, "failed to create task")
		return
	}

	resp := dto.CreateTaskResponse{Task: dto.ToTaskResponse(task)}
	if dispatch != nil {
		resp.NotificationsSent = len(dispatch.Created)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseTaskID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get task")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

func (h *TaskHandler) List(c *gin.Context) {
	filter := store.TaskFilter{Limit: defaultListLimit}
	if v := c.Query("trial_id"); v != "" {
		filter.TrialID = &v
	}
	if v := c.Query("status"); v != "" {
		status := model.TaskStatus(v)
		filter.Status = &status
	}
	if v := c.Query("assigned_role"); v != "" {
		filter.AssignedRole = &v
	}
	limit, ok := queryInt32(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt32(c, "offset", 0)
	if !ok {
		return
	}
	filter.Limit = min(limit, maxListLimit)
	filter.Offset = offset

	tasks, err := h.taskService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponses(tasks))
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseTaskID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), id, req.ToParams())
	if err != nil {
		respondError(c, err, "failed to update task")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	id, ok := parseTaskID(c, "id")
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	comment, err := h.taskService.AddComment(ctx, id, service.AddCommentParams{
		Comment:     req.Comment,
		CreatedBy:   middleware.GetUserID(ctx),
		Role:        req.Role,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(c, err, "failed to add comment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentResponse(comment))
}

// ListComments serves the thread. `from` selects the cache partition and a
// `t` token bypasses the cache.
func (h *TaskHandler) ListComments(c *gin.Context) {
	id, ok := parseTaskID(c, "id")
	if !ok {
		return
	}

	partition, ok := viewcache.ParsePartition(c.Query("from"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + c.Query("from")})
		return
	}
	_, bust := c.GetQuery("t")

	comments, err := h.taskService.ListComments(c.Request.Context(), id, partition, bust)
	if err != nil {
		respondError(c, err, "failed to list comments")
		return
	}
	if bust {
		c.Header("Cache-Control", "no-store")
	}
	c.JSON(http.StatusOK, dto.ToCommentResponses(comments))
}

// parseTaskID accepts a numeric id or a task code such as TSK-1A2B3C.
func parseTaskID(c *gin.Context, param string) (int64, bool) {
	raw := c.Param(param)
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		taskID, err = id.ParseCode(service.TaskCodePrefix, raw)
	}
	if err != nil || taskID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return taskID, true
}

func queryInt32(c *gin.Context, key string, def int32) (int32, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return int32(v), true
}
