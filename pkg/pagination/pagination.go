package pagination

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// WindowRadius is how many page buttons are shown either side of the
	// current page.
	WindowRadius = 2
)

// Params holds a zero-based page index and a page size.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// FromContext extracts pagination parameters from the echo context.
// Missing or invalid values fall back to page 0 and DefaultLimit.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	return Params{Page: page, Limit: ParseLimit(c.QueryParam("limit"))}
}

// ParseLimit reads a page size the way an operator types it: surrounding
// whitespace is ignored, trailing garbage after the leading digits is
// dropped, and anything that yields no positive number becomes
// DefaultLimit. Results above MaxLimit are capped, including digit runs too
// long for an int.
func ParseLimit(s string) int {
	return ParseLimitOr(s, DefaultLimit)
}

// ParseLimitOr is ParseLimit with a caller-chosen fallback.
func ParseLimitOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		return MaxLimit
	}
	if err != nil || n <= 0 {
		return fallback
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Skip returns the number of records preceding the page.
func (p Params) Skip() int {
	return p.Page * p.Limit
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Skip()+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Page > 0
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Span returns the 1-based positions of the first and last record shown on
// the page, clamped to total. For an empty page start exceeds end.
func (p Params) Span(total int) (start, end int) {
	start = p.Skip() + 1
	end = (p.Page + 1) * p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// ItemKind distinguishes page buttons from gap markers.
type ItemKind string

const (
	KindPage     ItemKind = "page"
	KindEllipsis ItemKind = "ellipsis"
)

// Item is one element of the page strip.
type Item struct {
	Kind   ItemKind `json:"kind"`
	Page   int      `json:"page,omitempty"`
	Label  string   `json:"label"`
	Active bool     `json:"active,omitempty"`
}

// Control describes a previous/next button.
type Control struct {
	Page     int  `json:"page"`
	Disabled bool `json:"disabled"`
}

// View is the rendered description of the pagination strip.
type View struct {
	Visible    bool    `json:"visible"`
	Current    int     `json:"current"`
	TotalPages int     `json:"total_pages"`
	Previous   Control `json:"previous"`
	Next       Control `json:"next"`
	Items      []Item  `json:"items"`
}

// Window builds the page strip for the current page. The strip is hidden
// when there is at most one page. It shows WindowRadius pages either side
// of current, a leading "1" (and a gap) when the window does not reach the
// first page, and a trailing gap (and last page) when it does not reach the
// last one.
func Window(current, totalPages int) View {
	// One page per strip slot, so the record predicates apply to pages.
	slot := Params{Page: current, Limit: 1}
	v := View{
		Current:    current,
		TotalPages: totalPages,
		Previous:   Control{Page: current - 1, Disabled: !slot.HasPrevious()},
		Next:       Control{Page: current + 1, Disabled: !slot.HasNext(totalPages)},
		Items:      []Item{},
	}
	if totalPages <= 1 {
		return v
	}
	v.Visible = true

	start := current - WindowRadius
	if start < 0 {
		start = 0
	}
	end := current + WindowRadius
	if end > totalPages-1 {
		end = totalPages - 1
	}
	if start > end {
		start = end
	}

	if start > 0 {
		v.Items = append(v.Items, pageItem(0, current))
		if start > 1 {
			v.Items = append(v.Items, Item{Kind: KindEllipsis, Label: "..."})
		}
	}
	for i := start; i <= end; i++ {
		v.Items = append(v.Items, pageItem(i, current))
	}
	if end < totalPages-1 {
		if end < totalPages-2 {
			v.Items = append(v.Items, Item{Kind: KindEllipsis, Label: "..."})
		}
		v.Items = append(v.Items, pageItem(totalPages-1, current))
	}
	return v
}

func pageItem(page, current int) Item {
	return Item{Kind: KindPage, Page: page, Label: strconv.Itoa(page + 1), Active: page == current}
}
