package timeline

import (
	"strconv"
	"strings"
)

// Visibility selects scenes by their hidden flag.
type Visibility string

const (
	VisibilityAll     Visibility = "all"
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// FilterSubject is what a filter predicate sees for one scene.
type FilterSubject struct {
	Index       int
	Title       string
	Description string
	Hidden      bool
}

// Filter combines a visibility mode with a text/number search.
// Match, when set, replaces the default query matching.
type Filter struct {
	Query      string
	Visibility Visibility
	Match      func(FilterSubject) bool
}

func (f Filter) visible(s FilterSubject) bool {
	switch f.Visibility {
	case VisibilityVisible:
		return !s.Hidden
	case VisibilityHidden:
		return s.Hidden
	default:
		return true
	}
}

func (f Filter) matches(s FilterSubject) bool {
	if f.Match != nil {
		return f.Match(s)
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	if n, err := strconv.Atoi(q); err == nil && n == s.Index+1 {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(s.Title), q) ||
		strings.Contains(strings.ToLower(s.Description), q)
}

// Apply runs the visibility filter, then the search filter.
func (f Filter) Apply(scenes []Scene) []Scene {
	out := make([]Scene, 0, len(scenes))
	for i, sc := range scenes {
		subj := FilterSubject{Index: i, Title: sc.Title, Description: sc.Description, Hidden: sc.Hidden}
		if !f.visible(subj) {
			continue
		}
		if !f.matches(subj) {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// Page is one window of a collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns page pageIndex (0-based) of items. The page holds
// min(pageSize, remaining) items; pages past the end are empty.
func Paginate[T any](items []T, pageSize, pageIndex int) (Page[T], error) {
	if pageSize < 1 {
		return Page[T]{}, &ValidationError{Field: "page_size", Message: "must be at least 1"}
	}
	if pageIndex < 0 {
		return Page[T]{}, &ValidationError{Field: "page", Message: "cannot be negative"}
	}
	total := len(items)
	p := Page[T]{
		Items:      []T{},
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	start := pageIndex * pageSize
	if start >= total {
		return p, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = append(p.Items, items[start:end]...)
	return p, nil
}

// View is a paginated, filtered presentation of the scene collection.
// Changing the filter or the page size returns to the first page.
type View struct {
	filter   Filter
	pageSize int
	page     int
}

// NewView creates a view with the given page size and no filter.
func NewView(pageSize int) *View {
	if pageSize < 1 {
		pageSize = 1
	}
	return &View{pageSize: pageSize, filter: Filter{Visibility: VisibilityAll}}
}

// Filter returns the current filter.
func (v *View) Filter() Filter {
	return v.filter
}

// PageSize returns the current page size.
func (v *View) PageSize() int {
	return v.pageSize
}

// PageIndex returns the current page.
func (v *View) PageIndex() int {
	return v.page
}

// SetFilter replaces the filter and resets to page 0.
func (v *View) SetFilter(f Filter) {
	if f.Visibility == "" {
		f.Visibility = VisibilityAll
	}
	v.filter = f
	v.page = 0
}

// SetPageSize changes the page size and resets to page 0.
func (v *View) SetPageSize(size int) error {
	if size < 1 {
		return &ValidationError{Field: "page_size", Message: "must be at least 1"}
	}
	v.pageSize = size
	v.page = 0
	return nil
}

// SetPage moves to pageIndex.
func (v *View) SetPage(pageIndex int) error {
	if pageIndex < 0 {
		return &ValidationError{Field: "page", Message: "cannot be negative"}
	}
	v.page = pageIndex
	return nil
}

// Render filters scenes and returns the current page.
func (v *View) Render(scenes []Scene) Page[Scene] {
	p, _ := Paginate(v.filter.Apply(scenes), v.pageSize, v.page)
	return p
}

// PageOf returns the page index that shows sceneID under the current
// filter, or -1 when the filter hides it.
func (v *View) PageOf(scenes []Scene, sceneID string) int {
	for i, sc := range v.filter.Apply(scenes) {
		if sc.ID == sceneID {
			return i / v.pageSize
		}
	}
	return -1
}
