package paths

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	cache     map[string][]byte
	cacheLock sync.Mutex
)

func isURL(fileName string) bool {
	return strings.HasPrefix(fileName, "http://") || strings.HasPrefix(fileName, "https://")
}

// openHTTP fetches fileName once and serves later opens from memory.
func openHTTP(fileName string) (io.ReadSeekCloser, error) {
	cacheLock.Lock()
	defer cacheLock.Unlock()

	if cache == nil {
		cache = make(map[string][]byte)
	}
	if buf, ok := cache[fileName]; ok {
		glog.V(2).Infof("paths: %q served from cache", fileName)
		return &bytesReaderWithDummyClose{bytes.NewReader(buf)}, nil
	}

	glog.Infof("paths: fetching %q", fileName)
	response, err := http.Get(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "paths.Open(%q): failed to open", fileName)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		e := os.ErrInvalid
		if response.StatusCode == http.StatusNotFound {
			e = os.ErrNotExist
		}
		return nil, errors.Wrapf(e, "paths.Open(%q): http response.StatusCode=%v, want 200", fileName, response.StatusCode)
	}

	// TODO(ivucica): Explore using ranged reads.
	buf, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "copying response to seekable buffer")
	}
	cache[fileName] = buf
	return &bytesReaderWithDummyClose{bytes.NewReader(buf)}, nil
}

type bytesReaderWithDummyClose struct {
	*bytes.Reader
}

func (bytesReaderWithDummyClose) Close() error {
	return nil
}
