package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Anton0729/ToDo-List-Project/internal/auth"
	"github.com/Anton0729/ToDo-List-Project/internal/models"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

type taskCreateRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type taskUpdateRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required"`
}

// pagination carries the page window echoed back in list responses. Total
// counts the rows on the returned page.
type pagination struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

// parsePagination reads page and size query parameters with the API's
// defaults (page 1, size 10, size capped at 100).
func parsePagination(c *gin.Context) (page, size int, ok bool) {
	var err error
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "page must be an integer >= 1"})
		return 0, 0, false
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "size must be an integer between 1 and 100"})
		return 0, 0, false
	}
	return page, size, true
}

// respondTaskPage writes the list envelope, or 404 when the page is empty.
func (s *Server) respondTaskPage(c *gin.Context, page, size int, tasks []models.Task) {
	if len(tasks) == 0 {
		s.respondError(c, http.StatusNotFound, fmt.Errorf("No tasks found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pagination": pagination{Page: page, Size: size, Total: len(tasks)},
		"tasks":      tasks,
	})
}

// handleListMyTasks returns one page of the caller's own tasks.
func (s *Server) handleListMyTasks(c *gin.Context) {
	page, size, ok := parsePagination(c)
	if !ok {
		return
	}

	principal := auth.CurrentUser(c)
	tasks, err := s.store.ListUserTasks(c.Request.Context(), principal.ID, page, size)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	s.respondTaskPage(c, page, size, tasks)
}

// handleListAllTasks returns one page across every user's tasks, optionally
// filtered by status. Any authenticated caller may read this listing.
func (s *Server) handleListAllTasks(c *gin.Context) {
	page, size, ok := parsePagination(c)
	if !ok {
		return
	}

	status := models.TaskStatus(c.Query("status"))
	if status != "" {
		if _, valid := models.ValidTaskStatuses[status]; !valid {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid task status %q", status))
			return
		}
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), page, size, status)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	s.respondTaskPage(c, page, size, tasks)
}

// handleGetTask returns a single task by id. Reads are not owner-scoped.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), id)
	if errors.Is(err, sqlite.ErrTaskNotFound) {
		s.respondError(c, http.StatusNotFound, fmt.Errorf("Task not found"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleCreateTask inserts a new task owned by the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	status := models.TaskStatus(req.Status)
	if status == "" {
		status = models.StatusNew
	}
	if _, valid := models.ValidTaskStatuses[status]; !valid {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid task status %q", req.Status))
		return
	}

	principal := auth.CurrentUser(c)
	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		UserID:      principal.ID,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// handleUpdateTask replaces a task's fields. Owner only.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	status := models.TaskStatus(req.Status)
	if _, valid := models.ValidTaskStatuses[status]; !valid {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid task status %q", req.Status))
		return
	}

	task, ok := s.ownedTask(c, id, "You do not have permission to update this task.")
	if !ok {
		return
	}

	updated, err := s.store.UpdateTask(c.Request.Context(), task.ID, req.Title, req.Description, status)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// handleDeleteTask removes a task. Owner only.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, ok := s.ownedTask(c, id, "You do not have permission to delete this task.")
	if !ok {
		return
	}

	if err := s.store.DeleteTask(c.Request.Context(), task.ID); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Task deleted successfully"})
}

// handleCompleteTask marks a task completed. Owner only.
func (s *Server) handleCompleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, ok := s.ownedTask(c, id, "You do not have permission to change status of this task.")
	if !ok {
		return
	}

	updated, err := s.store.SetTaskStatus(c.Request.Context(), task.ID, models.StatusCompleted)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ownedTask loads the task and enforces the ownership guard, writing the
// 404 or 403 response itself when the check fails.
func (s *Server) ownedTask(c *gin.Context, id int64, forbiddenDetail string) (models.Task, bool) {
	task, err := s.store.GetTask(c.Request.Context(), id)
	if errors.Is(err, sqlite.ErrTaskNotFound) {
		s.respondError(c, http.StatusNotFound, fmt.Errorf("Task not found"))
		return models.Task{}, false
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return models.Task{}, false
	}

	if !auth.Authorize(auth.CurrentUser(c), task.UserID) {
		s.respondError(c, http.StatusForbidden, errors.New(forbiddenDetail))
		return models.Task{}, false
	}
	return task, true
}
