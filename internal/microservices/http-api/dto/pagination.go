package dto

// Paginated wraps one page of a list endpoint
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPaginated creates a paginated response
func NewPaginated[T any](data []T, total int64, page, pageSize int) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	var totalPages int64
	if pageSize > 0 {
		totalPages = total / int64(pageSize)
		if total%int64(pageSize) != 0 {
			totalPages++
		}
	}

	return Paginated[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// MapSlice converts a slice of models into response DTOs.
func MapSlice[M, R any](items []M, fn func(M) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
