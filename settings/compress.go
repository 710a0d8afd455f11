package settings

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Compression is the container a settings file is stored in, picked by
// file extension.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// CompressionFor picks the compression from the extension of fileName.
func CompressionFor(fileName string) Compression {
	switch filepath.Ext(fileName) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	}
	return CompressionNone
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

// decompress reads all of r, undoing c.
func decompress(r io.Reader, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return io.ReadAll(r)
	case CompressionZstd:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)
		out, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(r))
		if err != nil {
			return nil, errors.Wrap(err, "lz4")
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported compression %v", c)
}

// compress writes data to w in container c.
func compress(w io.Writer, data []byte, c Compression) error {
	switch c {
	case CompressionNone:
		_, err := w.Write(data)
		return err
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return errors.Wrap(err, "zstd")
		}
		if _, err := io.Copy(enc, bytes.NewReader(data)); err != nil {
			enc.Close()
			return errors.Wrap(err, "zstd")
		}
		return errors.Wrap(enc.Close(), "zstd")
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if _, err := lw.Write(data); err != nil {
			return errors.Wrap(err, "lz4")
		}
		return errors.Wrap(lw.Close(), "lz4")
	}
	return errors.Errorf("unsupported compression %v", c)
}
