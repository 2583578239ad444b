package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matrific/matrific-web/pkg/debounce"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/response"
)

// LocalityHandler serves state and municipality lookups.
type LocalityHandler struct{}

// NewLocalityHandler constructs a LocalityHandler.
func NewLocalityHandler() *LocalityHandler {
	return &LocalityHandler{}
}

// States godoc
// @Summary List states
// @Tags Localities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /localidades/estados [get]
func (h *LocalityHandler) States(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	states, err := ws.Localities.States(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, states)
}

// Cities godoc
// @Summary Search municipalities
// @Description Debounced per session. A search overtaken by a newer one answers 204.
// @Tags Localities
// @Produce json
// @Param estado_id query int true "State ID"
// @Param search query string false "Name prefix"
// @Success 200 {object} response.Envelope
// @Success 204
// @Router /localidades/municipios [get]
func (h *LocalityHandler) Cities(c *gin.Context) {
	ws, ok := currentWorkspace(c)
	if !ok {
		return
	}
	stateID, err := strconv.Atoi(c.Query("estado_id"))
	if err != nil || stateID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "estado_id must be a positive integer"))
		return
	}
	cities, err := ws.SearchCities(c.Request.Context(), stateID, c.Query("search"))
	if err != nil {
		if errors.Is(err, debounce.ErrSuperseded) || errors.Is(err, debounce.ErrStale) {
			response.NoContent(c)
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, cities)
}
