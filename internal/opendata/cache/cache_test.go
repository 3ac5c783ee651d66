package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_IgnoresCredential(t *testing.T) {
	a := url.Values{"api-key": {"one"}, "limit": {"10"}, "filters[year]": {"2022"}}
	b := url.Values{"filters[year]": {"2022"}, "limit": {"10"}, "api-key": {"two"}}
	c := url.Values{"filters[year]": {"2023"}, "limit": {"10"}}

	assert.Equal(t, Key("petroleum_consumption", a), Key("petroleum_consumption", b))
	assert.NotEqual(t, Key("petroleum_consumption", a), Key("petroleum_consumption", c))
	assert.NotEqual(t, Key("petroleum_consumption", a), Key("flight_schedule", a))
	assert.NotContains(t, Key("petroleum_consumption", a), "one")

	_, present := a["api-key"]
	assert.True(t, present, "input params are not modified")
}

func TestRedisCache_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", []byte("a,b\n1,2\n")))

	body, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "a,b\n1,2\n", string(body))

	mr.FastForward(2 * time.Minute)
	_, hit, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, 30*time.Second)
	ctx := context.Background()

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	_, hit, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, hit)

	mock.ExpectSet("k", []byte("body"), 30*time.Second).SetErr(errors.New("READONLY"))
	assert.Error(t, c.Set(ctx, "k", []byte("body")))

	assert.NoError(t, mock.ExpectationsWereMet())
}
