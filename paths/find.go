package paths

import (
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Find locates the passed data file shortname and returns an absolute or
// relative path to find the data file at. URLs are returned as they are.
//
// For example, for "smb.json" it may return
// "spriteweb.runfiles/pixelrender/datafiles/smb.json".
//
// An empty string is returned when the file is nowhere to be found.
func Find(fileName string) string {
	if isURL(fileName) {
		return fileName
	}
	for _, path := range getPossiblePathsFS(fileName) {
		if f, err := os.Open(path); err == nil {
			f.Close()
			glog.Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look, and
// opens it. If Find returns an empty string, an error is returned.
func Open(fileName string) (io.ReadSeekCloser, error) {
	if isURL(fileName) {
		return openHTTP(fileName)
	}
	path := Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths.Open(%q): not found in %q", fileName, getPossiblePathDirsFS())
	}
	return os.Open(path)
}

// NoFindOpen opens the passed path or URL as it is.
func NoFindOpen(fileName string) (io.ReadSeekCloser, error) {
	if isURL(fileName) {
		return openHTTP(fileName)
	}
	return os.Open(fileName)
}
