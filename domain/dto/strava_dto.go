package dto

// ActivityListRequest is encoded into the query string of activity list endpoints
type ActivityListRequest struct {
	PerPage int `url:"per_page,omitempty"`
}
