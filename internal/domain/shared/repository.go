package shared

// Filter carries the paging and ordering options every list query accepts.
// OrderBy names a domain field; repositories map it to a stored field and
// reject anything outside their allow-list.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Offset returns the number of items to skip for the current page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
