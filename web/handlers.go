package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybons/gogif"
	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/settings"
	"badc0de.net/pkg/pixelrender/sprite"
)

const (
	// maxUpload bounds the body of an encode request.
	maxUpload = 4 << 20
	// maxUploadPixels bounds the decoded size of an uploaded image.
	maxUploadPixels = 1 << 20
	// defaultMaxCached is how many distinct sprite requests are served from
	// the library's caches before they are dropped.
	defaultMaxCached = 4096
)

type Handler struct {
	// lock serialises access to pr, which is not safe for concurrent use.
	lock sync.Mutex
	pr   *pixelrender.PixelRender

	// cached holds the requests the library has cached outputs for since it
	// was last reset. Guarded by lock.
	cached    map[spriteRequest]bool
	maxCached int
	resets    int

	signature uint64
	loaded    time.Time
}

// NewHandler constructs a web handler serving sprites from pr.
func NewHandler(pr *pixelrender.PixelRender) (*Handler, error) {
	data, err := settings.Marshal(pr.Settings())
	if err != nil {
		return nil, errors.Wrap(err, "hashing settings")
	}
	return &Handler{
		pr:        pr,
		cached:    make(map[spriteRequest]bool),
		maxCached: defaultMaxCached,
		signature: xxhash.Sum64(data),
		loaded:    time.Now(),
	}, nil
}

// Signature is the hash of the settings sprites are served from. It is part
// of every ETag.
func (h *Handler) Signature() uint64 {
	return h.signature
}

type spriteRequest struct {
	key    string
	attrs  pixelrender.Attributes
	format string
	thumb  int
}

func parseSpriteRequest(r *http.Request) (spriteRequest, error) {
	q := r.URL.Query()
	req := spriteRequest{
		key:    mux.Vars(r)["key"],
		format: q.Get("format"),
	}
	if req.format == "" {
		req.format = "png"
	}
	switch req.format {
	case "png", "gif", "dataurl":
	default:
		return req, errors.Errorf("unknown format %q", req.format)
	}
	for name, dst := range map[string]*int{"w": &req.attrs.Width, "h": &req.attrs.Height, "thumb": &req.thumb} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.Errorf("%s not a non-negative number", name)
		}
		*dst = n
	}
	if req.attrs.Width == 0 && req.attrs.Height == 0 {
		return req, errors.New("w or h is required")
	}
	return req, nil
}

func (h *Handler) etag(req spriteRequest) string {
	generation := 1 // bump if the way we generate it changes
	d := xxhash.New()
	fmt.Fprintf(d, "%s\x00%d\x00%d\x00%s\x00%d", req.key, req.attrs.Width, req.attrs.Height, req.format, req.thumb)
	return fmt.Sprintf(`W/"sprite:%d:%016x:%016x"`, generation, h.signature, d.Sum64())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sprite.ErrDimensions):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) spriteHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseSpriteRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	etag := h.etag(req)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	res, img, err := h.decode(req)
	if err != nil {
		glog.Warningf("web: sprite %q: %v", req.key, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", h.loaded.UTC().Format(http.TimeFormat))

	if m, ok := res.(*library.Multiple); ok {
		h.writeMultiple(w, m)
		return
	}

	var out image.Image = img
	if req.thumb > 0 {
		out = resize.Thumbnail(uint(req.thumb), uint(req.thumb), img, resize.NearestNeighbor)
	}

	switch req.format {
	case "png":
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		png.Encode(w, out)
	case "gif":
		w.Header().Set("Content-Type", "image/gif")
		w.WriteHeader(http.StatusOK)
		gif.Encode(w, transparentPaletted(out), nil)
	case "dataurl":
		s, err := pngDataURL(out)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, s)
	}
}

// locked runs fn with the lock held. A panic in fn is logged and returned
// as an error, and the library is reset since its caches may be half
// written.
func (h *Handler) locked(fn func() error) (err error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("web: recovered from %v\n%s", r, debug.Stack())
			err = errors.Errorf("internal error: %v", r)
			if rerr := h.resetLibrary(); rerr != nil {
				glog.Errorf("web: %v", rerr)
			}
		}
	}()
	return fn()
}

// resetLibrary drops everything the library has cached. Callers hold lock.
func (h *Handler) resetLibrary() error {
	h.cached = make(map[spriteRequest]bool)
	h.resets++
	if err := h.pr.ResetLibrary(h.pr.Settings().Library); err != nil {
		return errors.Wrap(err, "resetting library")
	}
	return nil
}

// decode returns the sprite for req, and its image when it is not a
// composite. Keys come from URLs, so the number of distinct requests the
// library keeps outputs for is bounded by maxCached.
func (h *Handler) decode(req spriteRequest) (res pixelrender.Result, img *image.RGBA, err error) {
	err = h.locked(func() error {
		req.thumb = 0
		req.format = ""
		if !h.cached[req] && len(h.cached) >= h.maxCached {
			glog.Infof("web: %d sprite requests cached, resetting library", len(h.cached))
			if err := h.resetLibrary(); err != nil {
				return err
			}
		}
		h.cached[req] = true

		var err error
		if res, err = h.pr.Decode(req.key, req.attrs); err != nil {
			return err
		}
		if _, isPixels := res.(library.Pixels); isPixels {
			img, err = h.pr.Image(req.key, req.attrs)
		}
		return err
	})
	return res, img, err
}

// transparentPaletted quantizes img while keeping index 0 transparent.
func transparentPaletted(img image.Image) *image.Paletted {
	quantizer := gogif.MedianCutQuantizer{NumColor: 255} // Up to 255 colors plus 1 space for transparency.
	pal := image.NewPaletted(img.Bounds(), nil)
	quantizer.Quantize(pal, img.Bounds(), img, image.Point{})

	// gogif's MedianCutQuantizer doesn't provide for calculation of the palette
	// without also copying the image, so the image is drawn a second time over
	// a palette that starts with the transparent colour.
	palTransparent := image.NewPaletted(img.Bounds(), append(color.Palette{color.Transparent}, pal.Palette...))
	draw.Draw(palTransparent, img.Bounds(), img, img.Bounds().Min, draw.Over)
	return palTransparent
}

func pngDataURL(img image.Image) (string, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return "", err
	}
	return dataurl.New(buf.Bytes(), "image/png").String(), nil
}

// multipleJSON describes a composite sprite, its parts as PNG data URLs.
type multipleJSON struct {
	Layout        string                 `json:"layout"`
	Thickness     map[string]int         `json:"thickness"`
	MiddleStretch bool                   `json:"middleStretch"`
	Parts         map[string]string      `json:"parts"`
	Sizes         map[string]image.Point `json:"sizes"`
}

func (h *Handler) writeMultiple(w http.ResponseWriter, m *library.Multiple) {
	out := multipleJSON{
		Layout: m.Layout.String(),
		Thickness: map[string]int{
			"top":    m.Thickness.Top,
			"right":  m.Thickness.Right,
			"bottom": m.Thickness.Bottom,
			"left":   m.Thickness.Left,
		},
		MiddleStretch: m.MiddleStretch,
		Parts:         make(map[string]string, len(m.Sprites)),
		Sizes:         make(map[string]image.Point, len(m.Sprites)),
	}
	for part, buf := range m.Sprites {
		img, err := sprite.ToImage(buf, m.Widths[part])
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if out.Parts[part], err = pngDataURL(img); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out.Sizes[part] = img.Bounds().Size()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}

// encodeHandler turns an uploaded image, sent as the raw body or as a data
// URL, into a sprite string.
func (h *Handler) encodeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if bytes.HasPrefix(body, []byte("data:")) {
		du, err := dataurl.DecodeString(strings.TrimSpace(string(body)))
		if err != nil {
			http.Error(w, "bad data url: "+err.Error(), http.StatusBadRequest)
			return
		}
		body = du.Data
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		http.Error(w, "bad image: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxUploadPixels/cfg.Height {
		http.Error(w, fmt.Sprintf("image of %dx%d pixels is over %d pixels", cfg.Width, cfg.Height, maxUploadPixels), http.StatusBadRequest)
		return
	}
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		http.Error(w, "bad image: "+err.Error(), http.StatusBadRequest)
		return
	}
	glog.V(2).Infof("web: encoding %v %s image", img.Bounds().Size(), format)

	var s string
	err = h.locked(func() error {
		var err error
		s, err = h.pr.Encode(img)
		return err
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, s)
}

func (h *Handler) paletteHandler(w http.ResponseWriter, r *http.Request) {
	size := 16
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 256 {
			http.Error(w, "size not a number between 1 and 256", http.StatusBadRequest)
			return
		}
		size = n
	}
	generation := 1 // bump if the way we generate it changes
	etag := fmt.Sprintf(`W/"palette:%d:%016x:%d"`, generation, h.signature, size)
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	png.Encode(w, h.pr.Palette().Image(size))
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sprite/{key}", h.spriteHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/encode", h.encodeHandler).Methods(http.MethodPost)
	r.HandleFunc("/palette.png", h.paletteHandler).Methods(http.MethodGet, http.MethodHead)
}
