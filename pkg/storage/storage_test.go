package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/db"
)

// contract runs the behavior every backend shares
func contract(t *testing.T, s Storage) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 20, 30, 123456789, time.FixedZone("X", 3*3600))

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Read(ctx, "Group-missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("write and read", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "Group-feed", ts))
		got, err := s.Read(ctx, "Group-feed")
		require.NoError(t, err)
		assert.True(t, ts.Equal(got), "want %v, got %v", ts, got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("overwrite", func(t *testing.T) {
		later := ts.Add(time.Hour)
		require.NoError(t, s.Write(ctx, "Group-feed", later))
		got, err := s.Read(ctx, "Group-feed")
		require.NoError(t, err)
		assert.True(t, later.Equal(got))
	})

	t.Run("delete", func(t *testing.T) {
		key := "Group-feed-d41d8cd98f00b204e9800998ecf8427e"
		require.NoError(t, s.Write(ctx, key, ts))
		require.NoError(t, s.Delete(ctx, key))
		_, err := s.Read(ctx, key)
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, s.Delete(ctx, key), "deleting a missing key is fine")
	})

	t.Run("concurrent keys", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("Group-feed%d", i)
				assert.NoError(t, s.Write(ctx, key, ts.Add(time.Duration(i)*time.Minute)))
			}(i)
		}
		wg.Wait()
		for i := range 10 {
			got, err := s.Read(ctx, fmt.Sprintf("Group-feed%d", i))
			require.NoError(t, err)
			assert.True(t, ts.Add(time.Duration(i)*time.Minute).Equal(got))
		}
	})
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(filepath.Join(dir, "state"))
	require.NoError(t, err)
	contract(t, s)

	t.Run("file layout", func(t *testing.T) {
		require.NoError(t, s.Write(context.Background(), "Cloud-aws", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
		data, err := os.ReadFile(filepath.Join(dir, "state", "last.Cloud-aws.dat"))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-02T03:04:05Z", string(data))
	})

	t.Run("key with slash stays in dir", func(t *testing.T) {
		require.NoError(t, s.Write(context.Background(), "a/b", time.Now()))
		_, err := os.Stat(filepath.Join(dir, "state", "last.a_b.dat"))
		require.NoError(t, err)
	})

	t.Run("corrupted file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "state", "last.bad.dat"), []byte("garbage"), 0o600))
		_, err := s.Read(context.Background(), "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewFile("")
		require.Error(t, err)
	})
}

func TestSQLite(t *testing.T) {
	conn, err := db.OpenSQLite(context.Background(), "file:"+filepath.Join(t.TempDir(), "state.db")+"?mode=rwc&_txlock=immediate")
	require.NoError(t, err)
	s := NewSQLite(conn)
	defer s.Close()
	contract(t, s)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	prefix := fmt.Sprintf("rssalert-test:%d:", time.Now().UnixNano())
	s, err := New(context.Background(), config.StorageConfig{
		Type:  "redis",
		Redis: config.RedisConfig{Addr: addr, Prefix: prefix, Timeout: 5 * time.Second},
	})
	require.NoError(t, err)
	defer s.Close()
	contract(t, s)
}

func TestNew(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		s, err := New(context.Background(), config.StorageConfig{Type: "file", File: config.FileConfig{Path: t.TempDir()}})
		require.NoError(t, err)
		assert.IsType(t, &File{}, s)
		assert.NoError(t, s.Close())
	})

	t.Run("default is file", func(t *testing.T) {
		s, err := New(context.Background(), config.StorageConfig{File: config.FileConfig{Path: t.TempDir()}})
		require.NoError(t, err)
		assert.IsType(t, &File{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := New(context.Background(), config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{DSN: "file::memory:"}})
		require.NoError(t, err)
		assert.IsType(t, &SQLite{}, s)
		assert.NoError(t, s.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(context.Background(), config.StorageConfig{Type: "etcd"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown storage type "etcd"`)
	})
}
