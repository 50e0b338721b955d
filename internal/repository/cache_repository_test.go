package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/atfitk/websystem-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "students:list:0", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "students:list:0", []string{"a"}, time.Minute))
	v, err := repo.Counter(ctx, "students:version")
	assert.NoError(t, err)
	assert.Zero(t, v)
	v, err = repo.Incr(ctx, "students:version")
	assert.NoError(t, err)
	assert.Zero(t, v)
	assert.NoError(t, repo.DeleteByPattern(ctx, "students:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositorySurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	repo := NewCacheRepository(client, nil)
	defer repo.Close() //nolint:errcheck
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "students:list:0", &dest)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Error(t, repo.Set(ctx, "students:list:0", []string{"a"}, time.Minute))
	_, err = repo.Counter(ctx, "students:version")
	assert.Error(t, err)
	_, err = repo.Incr(ctx, "students:version")
	assert.Error(t, err)
	assert.Error(t, repo.DeleteByPattern(ctx, "students:list:*"))
}
