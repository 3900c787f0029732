package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string                 `json:"name"`
	Count int                    `json:"count"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

func setupStore(t *testing.T) (Store[entry], string) {
	path := filepath.Join(t.TempDir(), "entries.json")
	s, err := NewStore[entry](path)
	require.NoError(t, err)
	return s, path
}

func TestNewStore(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		s, err := NewStore[entry]("")
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestStore_ReadAllMissingFile(t *testing.T) {
	s, _ := setupStore(t)

	records, err := s.ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStore_AppendThenReadAll(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry{Name: "first", Count: 1}))
	before, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	last := entry{Name: "second", Count: 2, Extra: map[string]interface{}{"k": "v"}}
	require.NoError(t, s.Append(ctx, last))

	after, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
	assert.Equal(t, last, after[len(after)-1])
	assert.Equal(t, before[0], after[0])
}

func TestStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	s, path := setupStore(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.Append(ctx, entry{Name: "fresh"}))
	records, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entry{{Name: "fresh"}}, records)
}

func TestStore_WritesIndentedArray(t *testing.T) {
	s, path := setupStore(t)
	require.NoError(t, s.Append(context.Background(), entry{Name: "a", Count: 3}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"a\",\n    \"count\": 3\n  }\n]", string(raw))
}

func TestStore_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "entries.json")
	s, err := NewStore[entry](path)
	require.NoError(t, err)

	require.NoError(t, s.Append(context.Background(), entry{Name: "x"}))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
