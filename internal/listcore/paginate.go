package listcore

// DefaultPageSize is the number of rows per page unless configured.
const DefaultPageSize = 10

// Paginator tracks the current page over a derived list. Page is zero based.
type Paginator struct {
	Page int
	Size int
}

// NewPaginator returns a paginator on the first page. Non-positive sizes use
// DefaultPageSize.
func NewPaginator(size int) Paginator {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Paginator{Size: size}
}

func (p Paginator) size() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// TotalPages is ceil(total/size).
func (p Paginator) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	size := p.size()
	return (total + size - 1) / size
}

// Clamp keeps Page inside [0, TotalPages-1], or 0 for an empty list. It must be
// called whenever the underlying list changes size.
func (p *Paginator) Clamp(total int) {
	last := p.TotalPages(total) - 1
	if p.Page > last {
		p.Page = last
	}
	if p.Page < 0 {
		p.Page = 0
	}
}

// Next advances one page if there is one.
func (p *Paginator) Next(total int) {
	p.Page++
	p.Clamp(total)
}

// Prev goes back one page, stopping at the first.
func (p *Paginator) Prev(total int) {
	p.Page--
	p.Clamp(total)
}

// GoTo jumps to page (zero based), clamped.
func (p *Paginator) GoTo(page, total int) {
	p.Page = page
	p.Clamp(total)
}

// Bounds returns the [start, end) window of the current page.
func (p Paginator) Bounds(total int) (int, int) {
	size := p.size()
	start := p.Page * size
	if start > total {
		start = total
	}
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

// Slice returns the rows of the current page.
func Slice[T any](records []T, p Paginator) []T {
	start, end := p.Bounds(len(records))
	return records[start:end]
}
