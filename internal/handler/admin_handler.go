package handler

import (
	"net/http"

	"tasklist/internal/admin"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	registry *admin.Registry
	lister   *admin.Lister
}

func NewAdminHandler(registry *admin.Registry, lister *admin.Lister) *AdminHandler {
	return &AdminHandler{registry: registry, lister: lister}
}

// ModelsResponse lists the models available in the staff listing.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// Index returns the registered models.
// @Summary List registered admin models
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ModelsResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/ [get]
func (h *AdminHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsResponse{Models: h.registry.Names()})
}

// ListTasks returns tasks of every user for staff.
// @Summary List all tasks (staff)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search in title and description"
// @Param priority query string false "Priority filter" Enums(1, 2, 3)
// @Param is_completed query string false "Completion filter" Enums(true, false)
// @Param due_date query string false "Due date filter" Enums(today, past_7_days, this_month, this_year)
// @Param page query int false "Page number"
// @Success 200 {object} admin.Result
// @Failure 403 {object} ErrorResponse
// @Router /admin/tasks/ [get]
func (h *AdminHandler) ListTasks(c *gin.Context) {
	res, err := h.lister.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
