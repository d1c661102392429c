// Package cache
package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/zap"
	"gotest.tools/assert"

	"github.com/kardiachain/circulation-backend/types"
)

func setupMongo(t *testing.T) Client {
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %s", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = pool.Purge(res) })
	assert.NilError(t, res.Expire(120))

	logger, err := zap.NewDevelopment()
	assert.NilError(t, err)
	var c Client
	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		var err error
		c, err = New(Config{
			Adapter:     MongoAdapter,
			URL:         fmt.Sprintf("mongodb://localhost:%s", res.GetPort("27017/tcp")),
			Database:    "circulation_test",
			DialTimeout: 5 * time.Second,
			Logger:      logger,
		})
		return err
	})
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMongo_Figures(t *testing.T) {
	c := setupMongo(t)
	ctx := context.Background()

	_, err := c.Get(ctx, types.KeyTotalCirculation)
	assert.Assert(t, errors.Is(err, types.ErrNotFound))

	values, err := c.MGet(ctx, types.KeyTotalCirculation, types.KeyLastUpdate)
	assert.NilError(t, err)
	assert.Assert(t, values[0] == nil && values[1] == nil)

	assert.NilError(t, c.MSet(ctx, map[string]string{
		types.KeyTotalCirculation: "1700.000000000000",
		types.KeyLastUpdate:       "1700000000000",
	}))
	v, err := c.Get(ctx, types.KeyTotalCirculation)
	assert.NilError(t, err)
	assert.Equal(t, v, "1700.000000000000")

	values, err = c.MGet(ctx, types.KeyLastUpdate, "unknown")
	assert.NilError(t, err)
	assert.Equal(t, *values[0], "1700000000000")
	assert.Assert(t, values[1] == nil)

	err = c.MSet(ctx, map[string]string{"a.b": "1"})
	assert.Assert(t, errors.Is(err, ErrInvalidKey))
}
