package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "subjects", []byte("[]"), time.Minute))

	b, hit, err := c.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, b)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "http://localhost:6379", "redis://localhost:6379/notadb"} {
		_, err := NewRedis(context.Background(), raw)
		assert.ErrorContains(t, err, "parse redis url", raw)
	}
}
