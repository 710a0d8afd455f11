package paths

import (
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindInDataEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.json"), []byte(`{}`), 0o644))
	t.Setenv(DataEnv, dir)

	assert.Equal(t, filepath.Join(dir, "library.json"), Find("library.json"))
	assert.Equal(t, "", Find("no-such-file.json"))

	f, err := Open("library.json")
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	_, err = Open("no-such-file.json")
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestSetupFilePathFlagSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{}`), 0o644))
	t.Setenv(DataEnv, dir)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var path string
	SetupFilePathFlagSet(fs, "settings.json", "settings", &path)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, filepath.Join(dir, "settings.json"), path)
	require.NoError(t, fs.Parse([]string{"-settings", "other.json"}))
	assert.Equal(t, "other.json", path)
}

func TestOpenHTTPCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/smb.json" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.Write([]byte(`{"palette": []}`))
	}))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		f, err := Open(srv.URL + "/smb.json")
		require.NoError(t, err)
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, `{"palette": []}`, string(b))
		f.Close()
	}
	assert.Equal(t, 1, hits)
	assert.Equal(t, srv.URL+"/smb.json", Find(srv.URL+"/smb.json"))

	_, err := NoFindOpen(srv.URL + "/missing.json")
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}
