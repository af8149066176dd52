package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithQuerySortBy(t *testing.T) {
	allowed := map[string]bool{"created_at": true, "name": true}

	assert.Equal(t, SortBy{Column: "name", Desc: true}, WithQuerySortBy(" Name ", "DESC", allowed))
	assert.Equal(t, SortBy{Column: "id"}, WithQuerySortBy("password", "asc", allowed))
	assert.Equal(t, SortBy{Column: "id"}, WithQuerySortBy("", "", allowed))
}
