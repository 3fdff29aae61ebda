package service

// Pagination bounds shared by the list operations.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePagination clamps page and limit to their valid ranges and
// returns them with the resulting row offset. Page numbering starts at 1.
func NormalizePagination(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}
