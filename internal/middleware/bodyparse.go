// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/appcontext"
	"github.com/labstack/echo/v4"
)

// BodyParsing decodes JSON and form bodies of mutating requests into a map
// stored in appcontext. JSON bodies are rewound so handlers can bind or
// read them again.
func BodyParsing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutating(req.Method) {
				return next(c)
			}

			contentType := strings.ToLower(req.Header.Get(echo.HeaderContentType))
			switch {
			case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
				parsed, ok, err := parseJSON(req)
				if err != nil {
					return err
				}
				if !ok {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
				}
				appcontext.SetParsedBody(c, parsed)

			case strings.HasPrefix(contentType, echo.MIMEApplicationForm),
				strings.HasPrefix(contentType, echo.MIMEMultipartForm):
				params, err := c.FormParams()
				if err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
				}
				parsed := make(map[string]any, len(params))
				for key, values := range params {
					if len(values) == 1 {
						parsed[key] = values[0]
					} else {
						parsed[key] = values
					}
				}
				appcontext.SetParsedBody(c, parsed)
			}

			return next(c)
		}
	}
}

// parseJSON returns ok=false for malformed JSON. A valid non-object body
// yields an empty map.
func parseJSON(req *http.Request) (map[string]any, bool, error) {
	if req.Body == nil {
		return map[string]any{}, true, nil
	}

	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, false, err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, true, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false, nil
	}
	if obj, isObj := decoded.(map[string]any); isObj {
		return obj, true, nil
	}
	return map[string]any{}, true, nil
}
