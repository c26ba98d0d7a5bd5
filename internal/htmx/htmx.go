// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package htmx reads htmx request headers and writes htmx responses.
package htmx

import (
	"net/http"
)

// Request headers.
const (
	HeaderRequest    = "HX-Request"
	HeaderBoosted    = "HX-Boosted"
	HeaderCurrentURL = "HX-Current-URL"
	HeaderTarget     = "HX-Target"
)

// Response headers.
const (
	HeaderRedirect        = "HX-Redirect"
	HeaderRefresh         = "HX-Refresh"
	HeaderTriggerResponse = "HX-Trigger"
)

// Request holds the htmx headers the application reacts to.
type Request struct {
	IsHtmx     bool
	IsBoosted  bool
	CurrentURL string
	Target     string
}

// ParseRequest extracts htmx information from request headers.
func ParseRequest(r *http.Request) *Request {
	return &Request{
		IsHtmx:     r.Header.Get(HeaderRequest) == "true",
		IsBoosted:  r.Header.Get(HeaderBoosted) == "true",
		CurrentURL: r.Header.Get(HeaderCurrentURL),
		Target:     r.Header.Get(HeaderTarget),
	}
}

// IsPartial reports whether the response may be a fragment instead of a
// full page. Boosted requests swap the whole body and need the layout.
func (r *Request) IsPartial() bool {
	return r.IsHtmx && !r.IsBoosted
}

// Redirect sends the client to url. htmx requests get an HX-Redirect header
// with status 200 since htmx does not follow 3xx responses for navigation.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get(HeaderRequest) == "true" {
		w.Header().Set(HeaderRedirect, url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
