// Package handlers exposes the JSON API. Every handler reads the tenant
// from the authenticated context, delegates to a service and renders a
// uniform response envelope.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"inss_crm_go/apperrors"
)

// Response is the envelope for single-object results.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// PaginatedResponse is the envelope for list results.
type PaginatedResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ErrorResponse is the envelope for failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: true, Message: message})
}

func respondPage(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success:  true,
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// respondErr maps a service error to its HTTP status via the error
// taxonomy. Internal errors never leak their message to the client.
func respondErr(c echo.Context, err error) error {
	code := apperrors.Code(err)
	status := http.StatusInternalServerError
	message := err.Error()
	switch code {
	case "NOT_FOUND":
		status = http.StatusNotFound
	case "VALIDATION_ERROR":
		status = http.StatusBadRequest
	case "CONFLICT":
		status = http.StatusConflict
	case "UNAUTHORIZED":
		status = http.StatusUnauthorized
	case "FORBIDDEN":
		status = http.StatusForbidden
	case "UPSTREAM_ERROR":
		status = http.StatusBadGateway
	default:
		message = "erro interno"
	}
	return c.JSON(status, ErrorResponse{Success: false, Code: code, Message: message})
}

// ErrorHandler renders every error that escapes a handler or middleware
// with the same envelope the handlers use, so 401s from the auth
// middleware and the router's own 404/405 look like any other failure.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code := "INTERNAL_ERROR"
		switch httpErr.Code {
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case http.StatusUnauthorized:
			code = "UNAUTHORIZED"
		case http.StatusForbidden:
			code = "FORBIDDEN"
		case http.StatusRequestEntityTooLarge:
			code = "VALIDATION_ERROR"
		}
		_ = c.JSON(httpErr.Code, ErrorResponse{
			Success: false,
			Code:    code,
			Message: fmt.Sprintf("%v", httpErr.Message),
		})
		return
	}

	_ = respondErr(c, err)
}

func bindErr(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Code:    "VALIDATION_ERROR",
		Message: "corpo da requisição inválido",
	})
}

// pagination reads page/page_size query params with the service defaults.
func pagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}
	return page, pageSize
}
