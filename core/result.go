package core

// PaginatedResult is the canonical page of documents returned by Find
type PaginatedResult struct {
	Docs          []Document `json:"docs"`
	TotalDocs     int        `json:"totalDocs"`
	Limit         int        `json:"limit"`
	TotalPages    int        `json:"totalPages"`
	Page          int        `json:"page"`
	PagingCounter int        `json:"pagingCounter"`
	HasPrevPage   bool       `json:"hasPrevPage"`
	HasNextPage   bool       `json:"hasNextPage"`
	PrevPage      *int       `json:"prevPage"`
	NextPage      *int       `json:"nextPage"`
}

// CountResult holds the number of documents matching a query
type CountResult struct {
	TotalDocs int `json:"totalDocs"`
}

// NewPaginatedResult builds a result and derives the paging fields from
// page, limit and totalPages.
func NewPaginatedResult(docs []Document, totalDocs, limit, page, totalPages int) *PaginatedResult {
	if docs == nil {
		docs = []Document{}
	}
	if page < 1 {
		page = 1
	}

	result := &PaginatedResult{
		Docs:          docs,
		TotalDocs:     totalDocs,
		Limit:         limit,
		TotalPages:    totalPages,
		Page:          page,
		PagingCounter: (page-1)*limit + 1,
		HasPrevPage:   page > 1,
		HasNextPage:   page < totalPages,
	}
	if result.HasPrevPage {
		prev := page - 1
		result.PrevPage = &prev
	}
	if result.HasNextPage {
		next := page + 1
		result.NextPage = &next
	}
	return result
}

// TotalPagesFor returns the number of pages needed for total docs at limit per page
func TotalPagesFor(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// First returns the first document or nil when the page is empty
func (r *PaginatedResult) First() Document {
	if r == nil || len(r.Docs) == 0 {
		return nil
	}
	return r.Docs[0]
}
