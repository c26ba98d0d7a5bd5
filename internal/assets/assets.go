// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets provides embedded static assets with a content version.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
)

const stylesheet = "static/css/app.css"

//go:embed static
var staticFS embed.FS

var cssPath = "/" + stylesheet

func init() {
	data, err := staticFS.ReadFile(stylesheet)
	if err != nil {
		slog.Error("failed to read stylesheet", "error", err)
		return
	}

	// The version query busts caches whenever the stylesheet changes.
	sum := sha256.Sum256(data)
	cssPath = "/" + stylesheet + "?v=" + hex.EncodeToString(sum[:])[:12]
	slog.Debug("loaded asset paths", "css", cssPath)
}

// CSSPath returns the path to the main CSS file.
func CSSPath() string {
	return cssPath
}

// FileServer returns an http.Handler that serves embedded static files.
// Mount it below /static/ with the prefix stripped.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
