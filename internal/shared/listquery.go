package shared

// ListQuery carries list page search, filter, sort and paging parameters.
// Column names are logical field names; repositories whitelist them.
type ListQuery struct {
	Search        string
	SearchColumns []string
	Filters       map[string]string
	SortBy        string
	SortDesc      bool
	Limit         int
	Offset        int
}
