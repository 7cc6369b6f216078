// Package pagination turns optional page, size and sort inputs into a bounded
// paging directive and shapes paged results.
package pagination

import (
	"strings"

	apperrors "task-manager.com/task-manager/internal/errors"
)

const (
	DefaultPage = 0
	DefaultSize = 10
	MaxSize     = 100
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Request is the raw caller input. Nil Page or Size take the defaults.
type Request struct {
	Page      *int
	Size      *int
	SortBy    string
	Direction string
}

type Sort struct {
	// Column is the store column the sort field resolved to.
	Column    string
	Direction Direction
}

type Pageable struct {
	Page int
	Size int
	Sort []Sort
}

func (p Pageable) Offset() int {
	return p.Page * p.Size
}

// Resolve validates req and maps its sort field through allowed, which goes
// from caller-facing field name to store column.
func Resolve(req Request, allowed map[string]string) (Pageable, error) {
	p, err := resolveBounds(req)
	if err != nil {
		return Pageable{}, err
	}

	field := strings.TrimSpace(req.SortBy)
	if field == "" {
		return p, nil
	}

	column, ok := allowed[field]
	if !ok {
		return Pageable{}, apperrors.InvalidArgument("cannot sort by %q", field)
	}
	p.Sort = []Sort{{Column: column, Direction: parseDirection(req.Direction)}}
	return p, nil
}

// ResolveFixed keeps the caller's page and size but ignores any requested
// sort in favour of sorts.
func ResolveFixed(req Request, sorts ...Sort) (Pageable, error) {
	p, err := resolveBounds(req)
	if err != nil {
		return Pageable{}, err
	}
	p.Sort = append([]Sort(nil), sorts...)
	return p, nil
}

func resolveBounds(req Request) (Pageable, error) {
	p := Pageable{Page: DefaultPage, Size: DefaultSize}

	if req.Page != nil {
		if *req.Page < 0 {
			return Pageable{}, apperrors.ErrNegativePage
		}
		p.Page = *req.Page
	}

	if req.Size != nil {
		if *req.Size < 1 {
			return Pageable{}, apperrors.ErrNonPositiveSize
		}
		p.Size = min(*req.Size, MaxSize)
	}

	return p, nil
}

// parseDirection defaults to descending; only an explicit "asc" flips it.
func parseDirection(v string) Direction {
	if strings.EqualFold(strings.TrimSpace(v), "asc") {
		return Asc
	}
	return Desc
}
