// cmd/veridex/store_test.go
package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStoreLifecycle(t *testing.T) {
	store := NewJobStore(time.Hour)

	job := store.Create(RunRequest{ClaimText: "a claim"})
	assert.Equal(t, JobStatusQueued, job.Status)

	store.SetStage(job.ID, StageCollect)
	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, JobStatusRunning, got.Status)
	assert.Equal(t, StageCollect, got.Stage)

	store.Complete(job.ID, &PipelineState{})
	got, ok = store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
}

func TestJobStoreFail(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := store.Create(RunRequest{ClaimText: "a claim"})

	store.Fail(job.ID, "context deadline exceeded")
	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Equal(t, "context deadline exceeded", got.Error)
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := NewJobStore(time.Hour)
	_, ok := store.Get(uuid.New())
	assert.False(t, ok)
}

func TestJobStoreGetReturnsCopy(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := store.Create(RunRequest{ClaimText: "a claim"})

	got, _ := store.Get(job.ID)
	got.Status = JobStatusFailed

	again, _ := store.Get(job.ID)
	assert.Equal(t, JobStatusQueued, again.Status)
}

func TestJobStoreSweep(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	stale := store.Create(RunRequest{ClaimText: "old"})

	time.Sleep(30 * time.Millisecond)
	fresh := store.Create(RunRequest{ClaimText: "new"})

	removed := store.Sweep()
	assert.Equal(t, 1, removed)

	_, ok := store.Get(stale.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10*time.Millisecond, 0)
	cache.Set("k", "v")

	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestCacheSweepRemovesExpired(t *testing.T) {
	cache := NewCache(time.Hour, 0)
	cache.SetWithTTL("stale", 1, 5*time.Millisecond)
	cache.Set("fresh", 2)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Get("fresh")
	assert.True(t, ok)
}

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	cache := NewCache(time.Hour, 2)
	cache.Set("first", 1)
	time.Sleep(2 * time.Millisecond)
	cache.Set("second", 2)
	time.Sleep(2 * time.Millisecond)
	cache.Set("third", 3)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("first")
	assert.False(t, ok)
	_, ok = cache.Get("third")
	assert.True(t, ok)
}

func TestCacheDelete(t *testing.T) {
	cache := NewCache(time.Hour, 0)
	cache.Set("k", "v")
	cache.Delete("k")
	_, ok := cache.Get("k")
	assert.False(t, ok)
}

func TestJobStoreCreateStampsClaimID(t *testing.T) {
	store := NewJobStore(time.Hour)

	job := store.Create(RunRequest{ClaimText: "a claim"})
	assert.Equal(t, job.ID.String(), job.Request.ClaimID)
}
