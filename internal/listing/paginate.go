package listing

// Page sizes used by the callers of Paginate. The store itself never pages.
const (
	BrowsePageSize = 5
	AdminPageSize  = 10
)

// Paginate slices items into fixed-size pages. The page index is 0-based;
// an index past the end clamps to the last non-empty page. An empty input
// yields zero pages.
func Paginate[T any](items []T, page, size int) (pageItems []T, clampedPage, totalPages int) {
	if size <= 0 || len(items) == 0 {
		return nil, 0, 0
	}
	totalPages = (len(items) + size - 1) / size
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, totalPages
}
