package storecontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestStoreIDFromContext(t *testing.T) {
	id, ok := StoreIDFromContext(WithStoreID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)

	_, ok = StoreIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = StoreIDFromContext(WithStoreID(context.Background(), 0))
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), StoreContextKey{}, " 77 ")
	id, ok = StoreIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(77), id)
}
