package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matrific/matrific-web/pkg/response"
)

// DashboardHandler serves the landing dashboard.
type DashboardHandler struct{}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Show godoc
// @Summary Dashboard
// @Description Courses, enrollments and per-status counters. Sections fail independently and are listed in falhas.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Show(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	dashboard, err := ws.Dashboard.Load(c.Request.Context())
	if err != nil {
		response.Failure(c, err, "Não foi possível carregar o painel")
		return
	}
	var meta map[string]interface{}
	if dashboard.Partial() {
		meta = map[string]interface{}{"partial": true}
	}
	response.JSON(c, http.StatusOK, dashboard, nil, meta)
}
