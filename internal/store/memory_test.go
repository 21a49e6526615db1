package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

var fixedNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	return NewMemoryStore(DefaultEntries(), WithClock(func() time.Time { return fixedNow }))
}

func TestMemoryStoreListHidesSecrets(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		assert.NotEqual(t, "internal.jwtSecret", entry.Key)
		assert.NotEqual(t, SetupFinishedKey, entry.Key)
	}
}

func TestMemoryStoreListReturnsDefensiveCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore([]settings.AdminEntry{
		{Entry: settings.Entry{Key: "general.appName", Value: settings.StringPtr("a"), Type: settings.TypeString}},
	})

	first, err := store.List(context.Background())
	require.NoError(t, err)
	*first[0].Value = "mutated"

	again, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", *again[0].Value)
}

func TestMemoryStoreListCategory(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)

	smtp, err := store.ListCategory(context.Background(), "smtp")
	require.NoError(t, err)
	require.NotEmpty(t, smtp)
	for _, entry := range smtp {
		assert.True(t, strings.HasPrefix(entry.Key, "smtp."), entry.Key)
		assert.Equal(t, fixedNow, entry.UpdatedAt)
	}

	none, err := store.ListCategory(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStorePatchUpdatesState(t *testing.T) {
	t.Parallel()

	later := fixedNow.Add(time.Hour)
	now := fixedNow
	store := NewMemoryStore(DefaultEntries(), WithClock(func() time.Time { return now }))
	now = later

	updated, err := store.Patch(context.Background(), []settings.Update{
		{Key: "share.maxSize", Value: float64(2048)},
		{Key: "smtp.enabled", Value: true},
		{Key: "general.appName", Value: "Drop"},
	})
	require.NoError(t, err)
	require.Len(t, updated, 3)
	assert.Equal(t, "2048", *updated[0].Value)
	assert.Equal(t, "true", *updated[1].Value)
	assert.Equal(t, "Drop", *updated[2].Value)
	assert.Equal(t, later, updated[0].UpdatedAt)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	resolver := settings.NewResolver(settings.NewOverrideTable(nil), settings.DefaultMissingKeyPolicy())
	n, ok := resolver.Resolve("share.maxSize", entries).Int()
	require.True(t, ok)
	assert.Equal(t, int64(2048), n)
}

func TestMemoryStorePatchNilResetsToDefault(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore([]settings.AdminEntry{
		{Entry: settings.Entry{Key: "smtp.port", Value: settings.StringPtr("25"), DefaultValue: "0", Type: settings.TypeNumber}, AllowEdit: true},
	})

	updated, err := store.Patch(context.Background(), []settings.Update{{Key: "smtp.port", Value: nil}})
	require.NoError(t, err)
	assert.Nil(t, updated[0].Value)
	assert.Equal(t, "0", updated[0].Raw())
}

func TestMemoryStorePatchRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		updates []settings.Update
		want    error
	}{
		{updates: []settings.Update{{Key: "nope", Value: "x"}}, want: ErrUnknownKey},
		{updates: []settings.Update{{Key: "general.appName", Value: "ok"}, {Key: "nope", Value: "x"}}, want: ErrUnknownKey},
		{updates: []settings.Update{{Key: "internal.jwtSecret", Value: "x"}}, want: ErrReadOnlyKey},
		{updates: []settings.Update{{Key: "general.appName", Value: []any{1.0, 2.0}}}, want: ErrInvalidValue},
		{updates: []settings.Update{{Key: "general.appName", Value: map[string]any{"a": "b"}}}, want: ErrInvalidValue},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			store := newTestMemoryStore(t)
			_, err := store.Patch(context.Background(), tc.updates)
			require.ErrorIs(t, err, tc.want)

			entries, err := store.ListCategory(context.Background(), "general")
			require.NoError(t, err)
			for _, entry := range entries {
				if entry.Key == "general.appName" {
					assert.Nil(t, entry.Value, "a rejected patch must not apply partially")
				}
			}
		})
	}
}

func TestMemoryStorePatchNonScalarKeepsStoredValue(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore([]settings.AdminEntry{
		{Entry: settings.Entry{Key: "share.zipCompressionLevel", Value: settings.StringPtr("5"), DefaultValue: "9", Type: settings.TypeNumber}, AllowEdit: true},
	})

	_, err := store.Patch(context.Background(), []settings.Update{{Key: "share.zipCompressionLevel", Value: []any{1.0, 2.0}}})
	require.ErrorIs(t, err, ErrInvalidValue)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Value)
	assert.Equal(t, "5", *entries[0].Value)
}

func TestMemoryStoreFinishSetup(t *testing.T) {
	t.Parallel()

	t.Run("existing flag", func(t *testing.T) {
		store := newTestMemoryStore(t)
		out, err := store.FinishSetup(context.Background())
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "true", *out[0].Value)
	})

	t.Run("declares missing flag", func(t *testing.T) {
		store := NewMemoryStore(nil)
		out, err := store.FinishSetup(context.Background())
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, SetupFinishedKey, out[0].Key)

		internal, err := store.ListCategory(context.Background(), "internal")
		require.NoError(t, err)
		require.Len(t, internal, 1)
		assert.Equal(t, "true", internal[0].Raw())
	})
}

func TestMemoryStoreSendTestEmail(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)

	require.NoError(t, store.SendTestEmail(context.Background(), "admin@example.com"))
	require.ErrorIs(t, store.SendTestEmail(context.Background(), "not-an-address"), ErrInvalidEmail)
	assert.Equal(t, []string{"admin@example.com"}, store.TestEmails())
}

func TestMemoryStoreChangeLogo(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)

	require.ErrorIs(t, store.ChangeLogo(context.Background(), "logo.png", strings.NewReader("")), ErrEmptyLogo)
	require.NoError(t, store.ChangeLogo(context.Background(), "logo.png", strings.NewReader("\x89PNG")))
	assert.Equal(t, 4, store.LogoSize())
}

func TestMemoryStoreChangeLogoRejectsOversizedUpload(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)
	require.NoError(t, store.ChangeLogo(context.Background(), "logo.png", strings.NewReader("\x89PNG")))

	oversized := strings.NewReader(strings.Repeat("x", maxLogoBytes+(1<<20)))
	err := store.ChangeLogo(context.Background(), "big.png", oversized)
	require.ErrorIs(t, err, ErrLogoTooLarge)
	assert.Equal(t, 4, store.LogoSize(), "previous logo must be kept")

	exact := strings.NewReader(strings.Repeat("x", maxLogoBytes))
	require.NoError(t, store.ChangeLogo(context.Background(), "edge.png", exact))
	assert.Equal(t, maxLogoBytes, store.LogoSize())
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := newTestMemoryStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			updates := []settings.Update{{Key: "share.zipCompressionLevel", Value: offset % 10}}
			if _, err := store.Patch(context.Background(), updates); err != nil {
				t.Errorf("Patch failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.List(context.Background()); err != nil {
				t.Errorf("List failed: %v", err)
			}
		}()
	}

	wg.Wait()

	// final read should succeed
	if _, err := store.ListCategory(context.Background(), "share"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "share", CategoryOf("share.maxSize"))
	assert.Equal(t, "general", CategoryOf("general.app.name"))
	assert.Equal(t, "plain", CategoryOf("plain"))
}
