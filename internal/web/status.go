package web

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// StatusPage renders the operator view of live sessions and archived
// matches.
func StatusPage(data StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <meta http-equiv="refresh" content="10"/>
    <title>Sus Party status</title>
  </head>
  <body>
    <main class="shell">
      <h1>Live sessions</h1>
`)
		if data.Error != "" {
			b.WriteString(`      <p class="error">` + esc(data.Error) + "</p>\n")
		}
		writeSessions(&b, data.Sessions)
		b.WriteString("      <h1>Finished matches</h1>\n")
		if !data.Archive {
			b.WriteString("      <p>The match archive is disabled.</p>\n")
		} else {
			writeMatches(&b, data.Matches)
			writePagination(&b, data.Pagination)
		}
		b.WriteString(`    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeSessions(b *strings.Builder, sessions []SessionSummary) {
	if len(sessions) == 0 {
		b.WriteString("      <p>No sessions are running.</p>\n")
		return
	}
	b.WriteString("      <table>\n        <tr><th>Code</th><th>Phase</th><th>Players</th><th>Host</th><th>Last activity</th><th>QR</th></tr>\n")
	for _, s := range sessions {
		b.WriteString("        <tr><td>" + esc(s.Code) + "</td><td>" + esc(s.Phase) + "</td><td>" + itoa(s.Players) +
			"</td><td>" + strconv.FormatInt(s.Host, 10) + "</td><td>" + formatTime(s.IdleSince) +
			`</td><td><a href="/api/sessions/` + esc(s.Code) + `/qr">join code</a></td></tr>` + "\n")
	}
	b.WriteString("      </table>\n")
}

func writeMatches(b *strings.Builder, matches []MatchSummary) {
	if len(matches) == 0 {
		b.WriteString("      <p>No matches archived yet.</p>\n")
		return
	}
	b.WriteString("      <table>\n        <tr><th>#</th><th>Code</th><th>Winner</th><th>Reason</th><th>Players</th><th>Ended</th></tr>\n")
	for _, m := range matches {
		b.WriteString(`        <tr><td><a href="/api/matches/` + utoa(m.ID) + `">` + utoa(m.ID) + "</a></td><td>" + esc(m.Code) +
			"</td><td>" + esc(m.Winner) + "</td><td>" + esc(m.Reason) + "</td><td>" + itoa(m.Players) +
			"</td><td>" + formatTime(m.EndedAt) + "</td></tr>\n")
	}
	b.WriteString("      </table>\n")
}

func writePagination(b *strings.Builder, p PaginationData) {
	if p.TotalPages <= 1 {
		return
	}
	b.WriteString(`      <nav class="pagination">`)
	if p.HasPrev {
		b.WriteString(`<a href="` + esc(pageURL(p.BasePath, p.PrevPage, p.PerPage)) + `">previous</a> `)
	}
	b.WriteString("page " + itoa(p.Page) + " of " + itoa(p.TotalPages))
	if p.HasNext {
		b.WriteString(` <a href="` + esc(pageURL(p.BasePath, p.NextPage, p.PerPage)) + `">next</a>`)
	}
	b.WriteString("</nav>\n")
}
