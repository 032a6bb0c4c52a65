package domain

type SortOrder string

const (
	SortLatest    SortOrder = "latest"
	SortStartDate SortOrder = "startDate"
	SortEndDate   SortOrder = "endDate"
)

// Filter is a listing request. Empty dimensions do not restrict.
type Filter struct {
	Category      Category
	Keyword       string
	Regions       []string
	SupportFields []string
	Targets       []string
	Ages          []string
	Careers       []string
	Sort          SortOrder
	Limit         int
}

// Query selects stored posts by equality. Zero values match everything.
type Query struct {
	Category Category
	Source   Source
	Limit    int
}
