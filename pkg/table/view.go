package table

// Page is one slice of a filtered view. PageCount is never below 1 so an
// empty table still renders page 1 of 1.
type Page[T any] struct {
	Rows      []*Row[T]
	Number    int
	PageCount int
	Total     int
}

// Filter returns the rows matching pred, in table order. The view is derived
// and read-only; it never mutates the collection.
func (t *Table[T]) Filter(pred func(*Row[T]) bool) []*Row[T] {
	var out []*Row[T]
	for _, row := range t.rows {
		if pred == nil || pred(row) {
			out = append(out, row)
		}
	}
	return out
}

// Paginate slices a filtered view into the requested page (1-based). A page
// beyond the new page count is clamped into range rather than showing an
// unexpectedly empty page.
func Paginate[T any](rows []*Row[T], page, size int) Page[T] {
	if size <= 0 {
		size = 1
	}

	pageCount := (len(rows) + size - 1) / size
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * size
	end := start + size
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}

	return Page[T]{
		Rows:      rows[start:end],
		Number:    page,
		PageCount: pageCount,
		Total:     len(rows),
	}
}
