package web

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestStatusPageEscapesAndPaginates(t *testing.T) {
	data := StatusData{
		Sessions: []SessionSummary{{Code: "ABC234", Phase: "lobby", Players: 3, Host: 7}},
		Archive:  true,
		Matches: []MatchSummary{{
			ID:      12,
			Code:    "ABC234",
			Winner:  "crewmates",
			Reason:  "<script>",
			Players: 8,
			EndedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}},
		Pagination: PaginationData{BasePath: "/status", Page: 2, PerPage: 10, TotalPages: 3, HasPrev: true, HasNext: true, PrevPage: 1, NextPage: 3},
	}
	var buf bytes.Buffer
	if err := StatusPage(data).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{
		"ABC234",
		`href="/api/sessions/ABC234/qr"`,
		"&lt;script&gt;",
		"2024-05-01 12:00:00",
		"/status?page=1&amp;per_page=10",
		"page 2 of 3",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("status page missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("reason was not escaped")
	}
}

func TestStatusPageWithoutArchive(t *testing.T) {
	var buf bytes.Buffer
	if err := StatusPage(StatusData{}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	if !strings.Contains(html, "No sessions are running.") || !strings.Contains(html, "archive is disabled") {
		t.Fatalf("unexpected page: %s", html)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Fatalf("formatTime(zero) = %q", got)
	}
}
