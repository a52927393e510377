package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(user string, n int) Record {
	light := float64(n * 10)
	return Record{
		ID:          fmt.Sprintf("rec-%d", n),
		UserID:      user,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
		Mode:        prompt.ModeExterior,
		Image:       media.Image{Data: []byte{0x89, 'P', 'N', 'G', byte(n)}, MIMEType: "image/png"},
		Instruction: "instruction",
		Request: prompt.Request{
			BaseImage:      media.Image{Data: []byte{0xff, 0xd8, byte(n)}, MIMEType: "image/jpeg"},
			StyleName:      "Photorealistic",
			LightDirection: &light,
			Atmospheres:    []string{"Rainy"},
			AspectRatio:    "16:9",
		},
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, s.Append(ctx, record("alice", i)))
	}
	require.NoError(t, s.Append(ctx, record("bob", 9)))

	list, err := s.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, list, 3, "trimmed to the newest three")
	assert.Equal(t, []string{"rec-4", "rec-3", "rec-2"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = s.List(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := s.Get(ctx, "alice", "rec-3")
	require.NoError(t, err)
	want := record("alice", 3)
	assert.Equal(t, want.Request.Clone(), got.Restore())
	assert.Equal(t, want.Image, got.Image)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, "alice", "rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "bob", "rec-3")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = s.List(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(3))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(RedisOptions{Client: client, MaxRecords: 3}))

	assert.False(t, mr.Exists("archviz:history:rec:alice:rec-1"), "trimmed record key is deleted")
	assert.True(t, mr.Exists("archviz:history:rec:alice:rec-4"))
}

func TestRedisStoreKeysDoNotCollideAcrossUsers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(RedisOptions{Client: client, MaxRecords: 5})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, record("bob:rec-1", 7)))
	require.NoError(t, s.Append(ctx, record("bob", 1)))
	require.NoError(t, s.Append(ctx, record("bob", 7)))

	list, err := s.List(ctx, "bob:rec-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob:rec-1", list[0].UserID)

	list, err = s.List(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-7", "rec-1"}, []string{list[0].ID, list[1].ID})

	_, err = s.Get(ctx, "bob", "rec-1:rec-7")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Get(ctx, "bob:rec-1", "rec-7")
	require.NoError(t, err)
	assert.Equal(t, "bob:rec-1", got.UserID)
}

func TestRestoreIsIndependentCopy(t *testing.T) {
	rec := record("alice", 1)
	req := rec.Restore()
	req.Atmospheres[0] = "Snowy"
	*req.LightDirection = 99
	assert.Equal(t, "Rainy", rec.Request.Atmospheres[0])
	assert.Equal(t, 10.0, *rec.Request.LightDirection)
}
