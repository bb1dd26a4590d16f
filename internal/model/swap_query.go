package model

// SwapQuery filters and pages the stored swap history.
type SwapQuery struct {
	SortBy string
	Desc   bool
	Limit  int
	Offset int
	Search string
	Date   string
}
