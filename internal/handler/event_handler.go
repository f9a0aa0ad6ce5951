package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surajpaudel2/sports-ticketing/internal/inventory"
	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

// EventHandler exposes the seat inventory ledger over HTTP
type EventHandler struct {
	inventory *inventory.Service
}

// NewEventHandler creates an event handler
func NewEventHandler(inv *inventory.Service) *EventHandler {
	return &EventHandler{inventory: inv}
}

func (h *EventHandler) Create(c *gin.Context) {
	var params inventory.CreateEventParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	event, err := h.inventory.CreateEvent(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, event)
}

func (h *EventHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	event, err := h.inventory.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, event)
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.inventory.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, events)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	var params inventory.UpdateEventParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	event, err := h.inventory.UpdateEvent(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, event)
}

func parseID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
