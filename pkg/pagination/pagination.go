package pagination

const (
	// DefaultSize is the standard page size when none is provided.
	DefaultSize = 10
	// MaxSize caps how many rows any page query can request.
	MaxSize = 50
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page int
	Size int
}

// Page describes the slice of results returned to the client.
type Page struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// Normalize clamps page and size to their allowed ranges.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	normalized := Normalize(p)
	return (normalized.Page - 1) * normalized.Size
}

// Limit returns the row limit for the normalized params.
func (p Params) Limit() int {
	return Normalize(p).Size
}
