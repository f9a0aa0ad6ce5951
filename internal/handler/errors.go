package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

// respondError maps a domain error to an HTTP response via its kind
func respondError(c *gin.Context, err error) {
	switch domain.Classify(err) {
	case domain.KindNotFound:
		response.NotFound(c, err.Error())
	case domain.KindInvalidState:
		response.UnprocessableEntity(c, "INVALID_STATE", err.Error())
	case domain.KindCapacityExceeded:
		response.Conflict(c, "CAPACITY_EXCEEDED", err.Error())
	case domain.KindDownstreamFailure:
		response.Error(c, http.StatusBadGateway, "DOWNSTREAM_FAILURE", err.Error())
	default:
		response.InternalError(c, err)
	}
}
