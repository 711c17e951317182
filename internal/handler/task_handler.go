package handler

import (
	"net/http"
	"strconv"
	"time"

	"tasklist/internal/apperr"
	"tasklist/internal/i18n"
	"tasklist/internal/listing"
	"tasklist/internal/metrics"
	"tasklist/internal/middleware"
	"tasklist/internal/model"
	"tasklist/internal/repository"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const taskListURL = "/tasks/"

type TaskHandler struct {
	taskRepo *repository.TaskRepository
	pipeline *listing.Pipeline
	renderer *web.Renderer
	catalog  *i18n.Catalog
	loc      *time.Location
}

func NewTaskHandler(
	taskRepo *repository.TaskRepository,
	pipeline *listing.Pipeline,
	renderer *web.Renderer,
	catalog *i18n.Catalog,
	loc *time.Location,
) *TaskHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandler{
		taskRepo: taskRepo,
		pipeline: pipeline,
		renderer: renderer,
		catalog:  catalog,
		loc:      loc,
	}
}

// List отображает отфильтрованный список задач текущего пользователя.
// AJAX-запросы получают только карточки задач и флаг has_next.
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := requireOwner(c)
	if !ok {
		return
	}

	params := listing.ParseParams(c.Request.URL.Query())
	page, err := h.pipeline.List(c.Request.Context(), userID, params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if isAJAX(c) {
		html, err := h.renderer.RenderString(web.TaskCards, page.Tasks)
		if err != nil {
			_ = c.Error(err)
			return
		}
		metrics.IncrementListRender("fragment")
		c.JSON(http.StatusOK, gin.H{
			"html":     html,
			"has_next": page.HasNext(),
		})
		return
	}

	metrics.IncrementListRender("page")
	data := h.pageData(c, i18n.KeyTaskListTitle)
	data.Page = page
	data.Priorities = model.Priorities
	c.HTML(http.StatusOK, web.TaskList, data)
}

// New показывает форму создания задачи и создает задачу
func (h *TaskHandler) New(c *gin.Context) {
	userID, ok := requireOwner(c)
	if !ok {
		return
	}

	form := TaskForm{Priority: "2"}
	var fieldErrs map[string]string

	if c.Request.Method == http.MethodPost {
		form = TaskForm{}
		var err error
		if fieldErrs, err = h.bindForm(c, &form); err != nil {
			_ = c.Error(err)
			return
		}

		if len(fieldErrs) == 0 {
			// Создаем задачу, привязанную к текущему пользователю
			task := &model.Task{UserID: userID}
			if err := form.apply(task, h.loc); err != nil {
				_ = c.Error(apperr.Wrap(apperr.KindBadRequest, "invalid task form", err))
				return
			}
			if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
				_ = c.Error(err)
				return
			}
			metrics.IncrementTaskMutation("create")
			c.Redirect(http.StatusSeeOther, taskListURL)
			return
		}
	}

	h.renderForm(c, i18n.KeyTaskCreateTitle, form, fieldErrs)
}

// Edit показывает заполненную форму и сохраняет изменения задачи
func (h *TaskHandler) Edit(c *gin.Context) {
	userID, taskID, ok := ownerAndTaskID(c)
	if !ok {
		return
	}

	// Задача чужого пользователя неотличима от несуществующей
	task, err := h.taskRepo.GetForOwner(c.Request.Context(), userID, taskID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	form := taskFormFrom(task, h.loc)
	var fieldErrs map[string]string

	if c.Request.Method == http.MethodPost {
		form = TaskForm{}
		if fieldErrs, err = h.bindForm(c, &form); err != nil {
			_ = c.Error(err)
			return
		}

		if len(fieldErrs) == 0 {
			_, err := h.taskRepo.Update(c.Request.Context(), userID, taskID, func(t *model.Task) error {
				return form.apply(t, h.loc)
			})
			if err != nil {
				_ = c.Error(err)
				return
			}
			metrics.IncrementTaskMutation("update")
			c.Redirect(http.StatusSeeOther, taskListURL)
			return
		}
	}

	h.renderForm(c, i18n.KeyTaskEditTitle, form, fieldErrs)
}

// Delete показывает подтверждение и удаляет задачу
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, taskID, ok := ownerAndTaskID(c)
	if !ok {
		return
	}

	if c.Request.Method == http.MethodPost {
		if err := h.taskRepo.Delete(c.Request.Context(), userID, taskID); err != nil {
			_ = c.Error(err)
			return
		}
		metrics.IncrementTaskMutation("delete")
		c.Redirect(http.StatusSeeOther, taskListURL)
		return
	}

	task, err := h.taskRepo.GetForOwner(c.Request.Context(), userID, taskID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	data := h.pageData(c, i18n.KeyTaskDeleteTitle)
	data.Task = task
	c.HTML(http.StatusOK, web.TaskConfirmDelete, data)
}

// Toggle переключает флаг выполнения без подтверждения
func (h *TaskHandler) Toggle(c *gin.Context) {
	userID, taskID, ok := ownerAndTaskID(c)
	if !ok {
		return
	}

	if _, err := h.taskRepo.Toggle(c.Request.Context(), userID, taskID); err != nil {
		_ = c.Error(err)
		return
	}
	metrics.IncrementTaskMutation("toggle")
	c.Redirect(http.StatusSeeOther, taskListURL)
}

// bindForm returns translated field errors for invalid input, or a
// BadRequest error when the body could not be decoded at all.
func (h *TaskHandler) bindForm(c *gin.Context, form *TaskForm) (map[string]string, error) {
	return bindWithErrors(c, h.catalog, form)
}

func (h *TaskHandler) renderForm(c *gin.Context, titleKey string, form TaskForm, fieldErrs map[string]string) {
	data := h.pageData(c, titleKey)
	data.Form = form
	data.Errors = fieldErrs
	data.Priorities = model.Priorities
	c.HTML(http.StatusOK, web.TaskForm, data)
}

func (h *TaskHandler) pageData(c *gin.Context, titleKey string) web.PageData {
	return newPageData(c, h.catalog.T(translator(c, h.catalog), titleKey))
}

func (f *TaskForm) apply(task *model.Task, loc *time.Location) error {
	due, err := ParseDueDate(f.DueDate, loc)
	if err != nil {
		return err
	}
	priority, ok := model.ParsePriority(f.Priority)
	if !ok {
		priority = model.PriorityMedium
	}

	task.Title = f.Title
	task.Description = f.Description
	task.DueDate = due
	task.Priority = priority
	task.IsCompleted = f.IsCompleted
	return nil
}

func taskFormFrom(task *model.Task, loc *time.Location) TaskForm {
	return TaskForm{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.In(loc).Format(DueDateLayout),
		Priority:    strconv.Itoa(int(task.Priority)),
		IsCompleted: task.IsCompleted,
	}
}

// requireOwner returns the authenticated user or records ErrNotAuthorized.
func requireOwner(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(middleware.ErrNotAuthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// ownerAndTaskID also parses the :id parameter; a malformed id is reported
// as a missing task.
func ownerAndTaskID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireOwner(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(repository.ErrTaskNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}
