// Package handlers implements the HTTP handlers of the public API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http/middleware"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// respond writes a successful APIResponse envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, common.APIResponse[any]{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// respondPage writes a successful envelope with pagination metadata.
func respondPage(c *gin.Context, data any, page common.Pagination) {
	c.JSON(http.StatusOK, common.APIResponse[any]{
		Success:    true,
		Data:       data,
		Pagination: &page,
		RequestID:  middleware.GetRequestID(c),
		Timestamp:  time.Now().UTC(),
	})
}

// respondError maps err's code to an HTTP status and writes the error
// envelope.  Internal detail never leaks; the AppError message is the public
// surface.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	c.JSON(status, common.APIResponse[any]{
		Success: false,
		Error: &common.ErrorDetail{
			Code:    code.String(),
			Message: message,
		},
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// parsePagination reads page and page_size query parameters with the usual
// defaults and a hard page-size cap.
func parsePagination(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}
