// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/apperror"
	"github.com/labstack/echo/v4"
)

// Messages for router level errors.
const (
	MessageNotFound         = "Endpoint niet gevonden"
	MessageMethodNotAllowed = "Methode niet toegestaan"
	MessageInternal         = "Internal Server Error"
)

// HTMLErrorRenderer renders an error page for browser clients.
type HTMLErrorRenderer func(c echo.Context, status int, message string) error

// ErrorHandler translates errors and panics into JSON or HTML responses.
type ErrorHandler struct {
	debug      bool
	renderHTML HTMLErrorRenderer
}

// NewErrorHandler creates an ErrorHandler. With debug set, messages of
// internal errors are shown to the client.
func NewErrorHandler(debug bool, renderHTML HTMLErrorRenderer) *ErrorHandler {
	return &ErrorHandler{debug: debug, renderHTML: renderHTML}
}

// Middleware recovers panics and handles errors returned further down the chain.
func (h *ErrorHandler) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					stack := make([]byte, 4<<10)
					stack = stack[:runtime.Stack(stack, false)]
					slog.Error("panic_recovered", "error", err, "stack", string(stack))
					h.Handle(err, c)
					returnErr = nil
				}
			}()

			if err := next(c); err != nil {
				h.Handle(err, c)
			}
			return nil
		}
	}
}

// Handle writes the response for err. It matches echo.HTTPErrorHandler.
func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message, fields := h.classify(err)
	h.log(c, err, status)

	if status >= http.StatusInternalServerError && !h.debug {
		message = MessageInternal
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(status)
	case status == http.StatusNotFound, status == http.StatusMethodNotAllowed,
		WantsJSON(c), h.renderHTML == nil:
		writeErr = c.JSON(status, errorBody(message, fields))
	default:
		writeErr = h.renderHTML(c, status, message)
	}
	if writeErr != nil {
		slog.Error("error_response_failed", "error", writeErr)
	}
}

func (h *ErrorHandler) classify(err error) (int, string, map[string][]string) {
	if appErr, ok := apperror.As(err); ok {
		message := appErr.Message
		if h.debug && appErr.Err != nil && appErr.Status >= http.StatusInternalServerError {
			message = appErr.Error()
		}
		return appErr.Status, message, appErr.Fields
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, MessageNotFound, nil
		case http.StatusMethodNotAllowed:
			return he.Code, MessageMethodNotAllowed, nil
		}
		if msg, ok := he.Message.(string); ok && msg != "" {
			return he.Code, msg, nil
		}
		return he.Code, http.StatusText(he.Code), nil
	}

	return http.StatusInternalServerError, err.Error(), nil
}

func (h *ErrorHandler) log(c echo.Context, err error, status int) {
	req := c.Request()
	attrs := []any{
		"status", status,
		"error", err.Error(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"ip", ClientIP(req),
		"method", req.Method,
		"url", req.URL.String(),
	}

	switch {
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(req.Context(), "request_failed", attrs...)
	case status == http.StatusNotFound:
		slog.DebugContext(req.Context(), "request_failed", attrs...)
	default:
		slog.InfoContext(req.Context(), "request_failed", attrs...)
	}
}

func errorBody(message string, fields map[string][]string) map[string]any {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if len(fields) > 0 {
		body["message"] = message
		body["errors"] = fields
	}
	return body
}
