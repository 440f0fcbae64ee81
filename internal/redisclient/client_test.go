package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	c, err := New("redis://localhost:6379/0", "convcom:")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "convcom:record:abc", c.Key("record", "abc"))
	assert.Equal(t, "convcom:queue:messages", c.Key("queue:messages"))

	bare, err := New("redis://localhost:6379/0", "")
	require.NoError(t, err)
	defer bare.Close()
	assert.Equal(t, "records", bare.Key("records"))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("http://nope", "")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))
}

func TestEnqueueIsFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), "p:")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Enqueue(ctx, "q", map[string]int{"n": 1}))
	require.NoError(t, c.Enqueue(ctx, "q", map[string]int{"n": 2}))

	first, err := c.Unwrap().LPop(ctx, "p:q").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, first)
}

func TestSetJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), "p:")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetJSON(context.Background(), "result:1", map[string]string{"status": "ok"}, time.Minute))

	raw, err := mr.Get("p:result:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, raw)
	assert.Equal(t, time.Minute, mr.TTL("p:result:1"))
}
