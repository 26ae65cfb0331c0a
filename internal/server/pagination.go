package server

import (
	"sus-party/internal/web"

	"github.com/gin-gonic/gin"
)

const (
	defaultMatchesPerPage = 20
	statusMatchesPerPage  = 10
	maxMatchesPerPage     = 100
)

type pageQuery struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// readPage reads page and per_page from the query string. Missing, invalid
// or non-positive values fall back to the first page of perPage rows.
func readPage(c *gin.Context, perPage int) pageQuery {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		q = pageQuery{}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = perPage
	}
	if q.PerPage > maxMatchesPerPage {
		q.PerPage = maxMatchesPerPage
	}
	return q
}

// paginate describes the page q lands on within total rows, moving q back to
// the last page when it points past the end.
func paginate(basePath string, q pageQuery, total int64) web.PaginationData {
	perPage := max(q.PerPage, 1)
	pages := max(int((total+int64(perPage)-1)/int64(perPage)), 1)
	page := min(max(q.Page, 1), pages)
	data := web.PaginationData{
		BasePath:   basePath,
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if data.HasPrev {
		data.PrevPage = page - 1
	}
	if data.HasNext {
		data.NextPage = page + 1
	}
	return data
}
