package api

import (
	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/journal"
)

// StampRequest is the request body for POST /stamp.
// Kind selects the plan: "created", "edited", "template", or "manual"
// (default) which only adds today's tag.
type StampRequest struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
}

// StampResult is the outcome of a stamp trigger (aliased from the engine).
type StampResult = engine.Result

// DocumentDetail is the parsed header view of one note (aliased from the engine).
type DocumentDetail = engine.Detail

// RecentResponse wraps the recent-stamps listing.
type RecentResponse struct {
	Stamps []journal.Entry `json:"stamps"`
	Total  int             `json:"total"`
}
