package remote_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-service-auth/internal/config"
	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/remote"
	"github.com/jrsteele09/go-service-auth/tokenclient"
	"github.com/stretchr/testify/require"
)

func testTargets() []config.RemoteTarget {
	return []config.RemoteTarget{
		{Name: "Backend", URL: "http://backend:8000/", Username: "frontend", Password: "secret"},
		{Name: "ai", URL: "http://ai:8001", Username: "frontend", Password: "secret"},
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := remote.New(testTargets(), tokenclient.WithTimeout(time.Second))

	c, err := r.Lookup("backend")
	require.NoError(t, err)
	require.Equal(t, "backend", c.Name())
	require.Equal(t, "http://backend:8000", c.BaseURL())

	upper, err := r.Lookup("BACKEND")
	require.NoError(t, err)
	require.Same(t, c, upper)

	require.Equal(t, []string{"ai", "backend"}, r.Names())
	require.Equal(t, 2, r.Len())
}

func TestRegistry_UnknownRemoteListsNames(t *testing.T) {
	r := remote.New(testTargets())

	_, err := r.Lookup("search")
	require.ErrorIs(t, err, autherrors.ErrUnknownRemote)
	require.ErrorContains(t, err, `"search"`)
	require.ErrorContains(t, err, "ai, backend")
	require.NotContains(t, err.Error(), "secret")
}

func TestRegistry_Empty(t *testing.T) {
	r := remote.New(nil)

	_, err := r.Lookup("backend")
	require.ErrorIs(t, err, autherrors.ErrUnknownRemote)
	require.ErrorContains(t, err, "(none)")
	require.Empty(t, r.Names())
}

func TestRegistry_NamesIsACopy(t *testing.T) {
	r := remote.New(testTargets())

	names := r.Names()
	names[0] = "changed"
	require.Equal(t, []string{"ai", "backend"}, r.Names())
}
