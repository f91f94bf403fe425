package tokenfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/stretchr/testify/require"
)

var _ blogsdk.TokenStore = (*Store)(nil)

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	s := New(path)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, blogsdk.Tokens{}, got)

	want := blogsdk.Tokens{Access: "a", Refresh: "r"}
	require.NoError(t, s.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = New(path).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.False(t, got.HasAccess())
}

func TestCorruptFileReadsAsLoggedOut(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, blogsdk.Tokens{}, got)
}

func TestDefaultPathHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	require.Equal(t, "tokens.json", filepath.Base(path))
	require.Contains(t, path, filepath.Join("quill", "tokens.json"))
}
