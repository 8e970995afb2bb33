package upstream

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileSessionStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := NewFileSessionStore(path, zap.NewNop())

	in := &Session{
		Token:   tokenA,
		Cookies: []*http.Cookie{{Name: "JSESSIONID", Value: "abc123", Path: "/"}},
	}
	require.NoError(t, store.Save(in))
	assert.NotEmpty(t, in.UpdatedAt)

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tokenA, out.Token)
	require.Len(t, out.Cookies, 1)
	assert.Equal(t, "JSESSIONID", out.Cookies[0].Name)
	assert.Equal(t, "abc123", out.Cookies[0].Value)
	assert.True(t, out.Usable())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestFileSessionStore_Missing(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "none.json"), zap.NewNop())

	s, err := store.Load()
	require.NoError(t, err)
	assert.False(t, s.Usable())
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewFileSessionStore(path, zap.NewNop()).Load()
	assert.Error(t, err)
}

func TestSession_Usable(t *testing.T) {
	cookie := []*http.Cookie{{Name: "JSESSIONID", Value: "x"}}

	assert.False(t, (*Session)(nil).Usable())
	assert.False(t, (&Session{Token: tokenA}).Usable(), "token without cookies")
	assert.False(t, (&Session{Cookies: cookie}).Usable(), "cookies without token")
	assert.True(t, (&Session{Token: tokenA, Cookies: cookie}).Usable())
}

func TestMemorySessionStore_Copies(t *testing.T) {
	store := NewMemorySessionStore()

	s := &Session{Token: tokenA}
	require.NoError(t, store.Save(s))
	s.Token = tokenB

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tokenA, got.Token)
}
