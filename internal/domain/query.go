package domain

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// maxWindowValue bounds page and limit so (page-1)*limit and page+1
	// stay within int.
	maxWindowValue = math.MaxInt32
)

// Window is a page/limit pagination window. Both values are always >= 1.
type Window struct {
	Page  int
	Limit int
}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination holds links to the neighbouring pages, when they exist.
type Pagination struct {
	Prev *PageRef `json:"prev,omitempty"`
	Next *PageRef `json:"next,omitempty"`
}

// PostQuery is the parsed form of a post listing request.
type PostQuery struct {
	Window
	CategoryID *uint
	// Published nil means "published only".
	Published *bool
	Search    string
}

// ParseWindow reads page and limit from the query string. Missing or
// malformed values fall back to the defaults; limit is clamped to maxLimit
// when maxLimit > 0.
func ParseWindow(values url.Values, defaultLimit, maxLimit int) Window {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	w := Window{
		Page:  positiveInt(values.Get("page"), DefaultPage),
		Limit: positiveInt(values.Get("limit"), defaultLimit),
	}
	if maxLimit > 0 && w.Limit > maxLimit {
		w.Limit = maxLimit
	}
	return w
}

// ParsePostQuery builds a PostQuery from listing parameters. It never fails:
// a malformed category id yields a filter that matches nothing.
func ParsePostQuery(values url.Values, defaultLimit, maxLimit int) PostQuery {
	q := PostQuery{
		Window: ParseWindow(values, defaultLimit, maxLimit),
		Search: strings.ToValidUTF8(values.Get("search"), ""),
	}
	if raw := values.Get("category"); raw != "" {
		id, _ := ParseID(raw)
		q.CategoryID = &id
	}
	if values.Has("published") {
		published := values.Get("published") == "true"
		q.Published = &published
	}
	return q
}

func (w Window) Offset() int {
	return (w.Page - 1) * w.Limit
}

// Paginate returns the prev/next hints for a result set of total items.
func (w Window) Paginate(total int64) Pagination {
	var p Pagination
	skip := w.Offset()
	if int64(skip+w.Limit) < total {
		p.Next = &PageRef{Page: w.Page + 1, Limit: w.Limit}
	}
	if skip > 0 {
		p.Prev = &PageRef{Page: w.Page - 1, Limit: w.Limit}
	}
	return p
}

// positiveInt parses raw as an integer >= 1. Values past maxWindowValue are
// clamped; anything else unparseable yields fallback.
func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return maxWindowValue
		}
		return fallback
	}
	if n < 1 {
		return fallback
	}
	return min(n, maxWindowValue)
}

// ParseID parses a positive row id. Ids outside the signed 64-bit range the
// database can store report false.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
