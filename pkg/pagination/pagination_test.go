package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Page != 0 {
		t.Errorf("expected default page 0, got %d", p.Page)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=50&page=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
	if p.Skip() != 150 {
		t.Errorf("expected skip 150, got %d", p.Skip())
	}
}

func TestFromContext_NegativePage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=-4", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if p := FromContext(c); p.Page != 0 {
		t.Errorf("expected page 0, got %d", p.Page)
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", DefaultLimit},
		{"abc", DefaultLimit},
		{"0", DefaultLimit},
		{"-5", DefaultLimit},
		{"25", 25},
		{" 20 ", 20},
		{"12abc", 12},
		{"500", MaxLimit},
		{"99999999999999999999", MaxLimit},
		{"123456789012345678901234567890rows", MaxLimit},
	}
	for _, tc := range cases {
		if got := ParseLimit(tc.in); got != tc.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseLimitOr(t *testing.T) {
	if got := ParseLimitOr("x", 25); got != 25 {
		t.Errorf("ParseLimitOr(x, 25) = %d, want 25", got)
	}
	if got := ParseLimitOr("30", 25); got != 30 {
		t.Errorf("ParseLimitOr(30, 25) = %d, want 30", got)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{95, 10, 10},
		{100, 10, 10},
		{101, 10, 11},
		{0, 10, 0},
		{5, 0, 0},
		{1, 10, 1},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestSpan(t *testing.T) {
	start, end := Params{Page: 9, Limit: 10}.Span(95)
	if start != 91 || end != 95 {
		t.Errorf("Span = %d-%d, want 91-95", start, end)
	}
	start, end = Params{Page: 0, Limit: 10}.Span(95)
	if start != 1 || end != 10 {
		t.Errorf("Span = %d-%d, want 1-10", start, end)
	}
}

func TestHasNextPrevious(t *testing.T) {
	p := Params{Page: 0, Limit: 10}
	if p.HasPrevious() {
		t.Error("page 0 has no previous")
	}
	if !p.HasNext(95) {
		t.Error("page 0 of 95 has next")
	}
	last := Params{Page: 9, Limit: 10}
	if last.HasNext(95) {
		t.Error("last page has no next")
	}
	if !last.HasPrevious() {
		t.Error("last page has previous")
	}
}

// labels flattens the strip into its button/gap labels.
func labels(v View) []string {
	out := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		out = append(out, it.Label)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWindow(t *testing.T) {
	cases := []struct {
		name             string
		current, total   int
		want             []string
		prevDis, nextDis bool
	}{
		{"first of ten", 0, 10, []string{"1", "2", "3", "...", "10"}, true, false},
		{"middle of ten", 5, 10, []string{"1", "...", "4", "5", "6", "7", "8", "...", "10"}, false, false},
		{"last of ten", 9, 10, []string{"1", "...", "8", "9", "10"}, false, true},
		{"adjacent to first", 3, 10, []string{"1", "2", "3", "4", "5", "6", "...", "10"}, false, false},
		{"adjacent to last", 6, 10, []string{"1", "...", "5", "6", "7", "8", "9", "10"}, false, false},
		{"small", 1, 3, []string{"1", "2", "3"}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Window(tc.current, tc.total)
			if !v.Visible {
				t.Fatal("expected visible strip")
			}
			if got := labels(v); !equal(got, tc.want) {
				t.Errorf("items = %v, want %v", got, tc.want)
			}
			if v.Previous.Disabled != tc.prevDis || v.Next.Disabled != tc.nextDis {
				t.Errorf("prev/next disabled = %v/%v, want %v/%v",
					v.Previous.Disabled, v.Next.Disabled, tc.prevDis, tc.nextDis)
			}
		})
	}
}

func TestWindow_ActivePage(t *testing.T) {
	v := Window(4, 10)
	active := 0
	for _, it := range v.Items {
		if it.Active {
			active++
			if it.Page != 4 {
				t.Errorf("active page = %d, want 4", it.Page)
			}
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active item, got %d", active)
	}
}

func TestWindow_Controls(t *testing.T) {
	first := Window(0, 5)
	if !first.Previous.Disabled || first.Next.Disabled || first.Next.Page != 1 {
		t.Errorf("first page controls = %+v / %+v", first.Previous, first.Next)
	}
	middle := Window(2, 5)
	if middle.Previous.Disabled || middle.Next.Disabled || middle.Previous.Page != 1 {
		t.Errorf("middle page controls = %+v / %+v", middle.Previous, middle.Next)
	}
	last := Window(4, 5)
	if last.Previous.Disabled || !last.Next.Disabled {
		t.Errorf("last page controls = %+v / %+v", last.Previous, last.Next)
	}
}

func TestWindow_HiddenForSinglePage(t *testing.T) {
	for _, total := range []int{0, 1} {
		v := Window(0, total)
		if v.Visible || len(v.Items) != 0 {
			t.Errorf("totalPages=%d: expected hidden empty strip, got %+v", total, v)
		}
	}
}

func TestWindow_OutOfRangePage(t *testing.T) {
	v := Window(15, 10)
	if !v.Next.Disabled {
		t.Error("next should be disabled past the last page")
	}
	if got := labels(v); !equal(got, []string{"1", "...", "10"}) {
		t.Errorf("items = %v", got)
	}
}
