package pagination

type Page[T any] struct {
	Content          []T   `json:"content"`
	PageNumber       int   `json:"pageNumber"`
	PageSize         int   `json:"pageSize"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
	NumberOfElements int   `json:"numberOfElements"`
}

func NewPage[T any](content []T, p Pageable, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if p.Size > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}

	return Page[T]{
		Content:          content,
		PageNumber:       p.Page,
		PageSize:         p.Size,
		TotalElements:    total,
		TotalPages:       totalPages,
		First:            p.Page == 0,
		Last:             p.Page+1 >= totalPages,
		Empty:            len(content) == 0,
		NumberOfElements: len(content),
	}
}

// Refilter drops content items that fail keep. Totals and page flags still
// describe the unfiltered result; only NumberOfElements follows the content.
func Refilter[T any](page Page[T], keep func(T) bool) Page[T] {
	filtered := make([]T, 0, len(page.Content))
	for _, item := range page.Content {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}

	page.Content = filtered
	page.NumberOfElements = len(filtered)
	return page
}

func Map[T, R any](page Page[T], fn func(T) R) Page[R] {
	content := make([]R, 0, len(page.Content))
	for _, item := range page.Content {
		content = append(content, fn(item))
	}

	return Page[R]{
		Content:          content,
		PageNumber:       page.PageNumber,
		PageSize:         page.PageSize,
		TotalElements:    page.TotalElements,
		TotalPages:       page.TotalPages,
		First:            page.First,
		Last:             page.Last,
		Empty:            page.Empty,
		NumberOfElements: len(content),
	}
}
