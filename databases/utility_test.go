package databases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginatedOpts(t *testing.T) {
	opts := PaginatedOpts(20, 3)
	assert.Equal(t, int64(20), *opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)
}

func TestPaginatedOptsDefaults(t *testing.T) {
	opts := PaginatedOpts(0, 0)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)

	opts = PaginatedOpts(-5, -1)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)
}
