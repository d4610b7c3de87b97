package pipeline

import (
	"fmt"

	"github.com/ritik/timeline-core/internal/models"
)

// paginate slices the assembled, already-capped item list into one page.
// Offset is clamped into [0, len(items)]; limit defaults to defaultLimit
// when unset (spec.md §4.5 step 6).
func paginate(items []models.RankedItem, offset, limit, defaultLimit int) ([]models.RankedItem, models.Pagination) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := items[offset:end]
	hasNext := end < len(items)

	var nextCursor string
	if hasNext {
		nextCursor = fmt.Sprintf("%d", end)
	}

	return page, models.Pagination{
		Offset:     offset,
		Limit:      limit,
		TotalCount: len(items),
		HasNext:    hasNext,
		NextCursor: nextCursor,
	}
}
