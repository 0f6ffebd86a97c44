package domain

const (
	// DefaultPageSize используется, если размер страницы не задан.
	DefaultPageSize = 10
	// MaxPageSize ограничивает размер запрашиваемой страницы.
	MaxPageSize = 100
)

// PageRequest задаёт номер (с нуля) и размер страницы.
type PageRequest struct {
	Number int
	Size   int
}

// Normalize подставляет значения по умолчанию и обрезает выход за границы.
func (r PageRequest) Normalize() PageRequest {
	if r.Number < 0 {
		r.Number = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Page — страница серверной коллекции с метаданными пагинации.
type Page[T any] struct {
	Items         []T
	PageNumber    int
	PageSize      int
	TotalElements int64
	TotalPages    int
	LastPage      bool
}

// EmptyPage возвращает пустую страницу для запроса.
func EmptyPage[T any](req PageRequest) Page[T] {
	req = req.Normalize()
	return Page[T]{
		Items:      []T{},
		PageNumber: req.Number,
		PageSize:   req.Size,
		LastPage:   true,
	}
}

// IsEmpty сообщает, что на странице нет элементов.
func (p Page[T]) IsEmpty() bool {
	return len(p.Items) == 0
}
