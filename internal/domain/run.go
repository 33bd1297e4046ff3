package domain

import "github.com/google/uuid"

// RunError records one failure inside a crawl run without aborting it.
type RunError struct {
	Portal  string `json:"portal"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// RunSummary is the outcome of one ExecuteSearch run. Success means the
// run completed; per-portal failures live in Errors. Callers that need a
// clean run check len(Errors) == 0.
type RunSummary struct {
	SearchID      uuid.UUID  `json:"search_id"`
	SearchName    string     `json:"search_name"`
	Success       bool       `json:"success"`
	TotalFound    int        `json:"total_found"`
	NewProperties int        `json:"new_properties"`
	Duplicates    int        `json:"duplicates"`
	Scraped       int        `json:"scraped"`
	Pending       int        `json:"pending"`
	Errors        []RunError `json:"errors"`
}

type PendingStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Scraped   int `json:"scraped"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Duplicate int `json:"duplicate"`
}
