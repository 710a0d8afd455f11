package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vincent-petithory/dataurl"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/palette"
)

var (
	transparent = color.RGBA{}
	white       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	brown       = color.RGBA{R: 136, G: 80, A: 255}
)

func newRouter(t *testing.T) (*mux.Router, *Handler) {
	t.Helper()
	return newScaledRouter(t, 1)
}

func newScaledRouter(t *testing.T, scale int) (*mux.Router, *Handler) {
	t.Helper()
	pr, err := pixelrender.New(pixelrender.Settings{
		Palette: palette.Palette{transparent, white, brown},
		Scale:   scale,
		Library: map[string]interface{}{
			"Block": map[string]interface{}{"normal": "0220"},
			"Pipe": []interface{}{"multiple", "vertical", map[string]interface{}{
				"top": "11", "middle": "22", "bottom": "11",
			}},
		},
	})
	require.NoError(t, err)
	h, err := NewHandler(pr)
	require.NoError(t, err)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r, h
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSpritePNG(t *testing.T) {
	r, _ := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.NRGBAModel.Convert(brown), color.NRGBAModel.Convert(img.At(1, 0)))
}

func TestSpriteETag(t *testing.T) {
	r, _ := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil)
	req.Header.Set("If-None-Match", etag)
	rec = serve(r, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?h=2", nil))
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestSpriteDataURL(t *testing.T) {
	r, _ := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2&format=dataurl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	du, err := dataurl.DecodeString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "image/png", du.MediaType.ContentType())
	_, err = png.Decode(bytes.NewReader(du.Data))
	assert.NoError(t, err)
}

func TestSpriteThumbAndGIF(t *testing.T) {
	r, _ := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2&thumb=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2&format=gif", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "GIF8"))
}

func TestSpriteMultiple(t *testing.T) {
	r, _ := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Pipe?w=2", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got multipleJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "vertical", got.Layout)
	assert.Len(t, got.Parts, 3)
	assert.Equal(t, image.Pt(2, 1), got.Sizes["top"])
	assert.True(t, strings.HasPrefix(got.Parts["middle"], "data:image/png;base64,"))
}

func TestSpriteErrors(t *testing.T) {
	r, _ := newRouter(t)
	for url, code := range map[string]int{
		"/sprite/Goomba?w=2":           http.StatusNotFound,
		"/sprite/Block":                http.StatusBadRequest,
		"/sprite/Block?w=x":            http.StatusBadRequest,
		"/sprite/Block?w=3":            http.StatusBadRequest,
		"/sprite/Block?w=2&format=bmp": http.StatusBadRequest,
	} {
		rec := serve(r, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, code, rec.Code, url)
	}
}

func TestSpriteHugeWidth(t *testing.T) {
	r, _ := newScaledRouter(t, 2)
	for _, url := range []string{
		"/sprite/Block?w=9223372036854775807",
		"/sprite/Block?h=9223372036854775807",
		"/sprite/Block?w=4611686018427387904",
		"/sprite/Pipe?w=9223372036854775807",
	} {
		rec := serve(r, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}

// serveWithin fails the test instead of hanging when the handler blocks.
func serveWithin(t *testing.T, r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- serve(r, req) }()
	select {
	case rec := <-done:
		return rec
	case <-time.After(5 * time.Second):
		t.Fatalf("%s %s did not finish", req.Method, req.URL)
	}
	return nil
}

func TestLockedRecoversPanic(t *testing.T) {
	r, h := newRouter(t)
	err := h.locked(func() error { panic("half way through") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "half way through")
	assert.Equal(t, 1, h.resets)

	rec := serveWithin(t, r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	err = h.locked(func() error { panic("again") })
	require.Error(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 1))))
	rec = serveWithin(t, r, httptest.NewRequest(http.MethodPost, "/encode", buf))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSpriteErrorKeepsServing(t *testing.T) {
	r, _ := newRouter(t)
	for i := 0; i < 3; i++ {
		rec := serveWithin(t, r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=3", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = serveWithin(t, r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSpriteCacheBounded(t *testing.T) {
	r, h := newRouter(t)
	h.maxCached = 3
	for i := 0; i < 4; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Block?w=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, h.resets, "repeating a request does not grow the cache")

	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("/sprite/Block.junk%d?w=2", i)
		rec := serve(r, httptest.NewRequest(http.MethodGet, url, nil))
		require.Equal(t, http.StatusOK, rec.Code, url)
		assert.LessOrEqual(t, len(h.cached), 3)
	}
	assert.Equal(t, 3, h.resets)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/sprite/Pipe?w=2", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestEncodeOversized(t *testing.T) {
	r, _ := newRouter(t)
	// A GIF header declaring a 65535x65535 screen, with nothing behind it.
	header := []byte("GIF89a\xff\xff\xff\xff\x00\x00\x00")
	rec := serve(r, httptest.NewRequest(http.MethodPost, "/encode", bytes.NewReader(header)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "65535x65535")

	du := dataurl.New(header, "image/gif").String()
	rec = serve(r, httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader(du)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "65535x65535")
}

func TestEncode(t *testing.T) {
	r, _ := newRouter(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	img.Set(1, 0, brown)
	img.Set(2, 0, brown)
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/encode", bytes.NewReader(buf.Bytes())))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "p[0,2]0110", rec.Body.String())

	du := dataurl.New(buf.Bytes(), "image/png").String()
	rec = serve(r, httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader(du)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "p[0,2]0110", rec.Body.String())

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader("not an image")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/encode", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPalette(t *testing.T) {
	r, h := newRouter(t)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/palette.png?size=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("ETag"), "palette:")
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 2), img.Bounds())
	assert.NotZero(t, h.Signature())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/palette.png?size=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
