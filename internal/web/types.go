package web

import "time"

type SessionSummary struct {
	Code      string    `json:"code"`
	Phase     string    `json:"phase"`
	Players   int       `json:"players"`
	Host      int64     `json:"host"`
	IdleSince time.Time `json:"idle_since"`
}

type MatchSummary struct {
	ID      uint      `json:"id"`
	Code    string    `json:"code"`
	Winner  string    `json:"winner"`
	Reason  string    `json:"reason"`
	Players int       `json:"players"`
	EndedAt time.Time `json:"ended_at"`
}

type PaginationData struct {
	BasePath   string `json:"-"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevPage   int    `json:"prev_page,omitempty"`
	NextPage   int    `json:"next_page,omitempty"`
}

type StatusData struct {
	Sessions   []SessionSummary
	Archive    bool
	Matches    []MatchSummary
	Pagination PaginationData
	Error      string
}
