package databases

import "go.mongodb.org/mongo-driver/mongo/options"

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// PaginatedOpts returns find options applying a limit/page pair, defaulting
// to page 1 with 10 results.
func PaginatedOpts(limit, page int) *options.FindOptions {
	return newMongoPaginate(limit, page).getPaginatedOpts()
}
