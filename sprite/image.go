package sprite

// This file contains the glue between flat RGBA buffers and image.Image.

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// Pixels draws img onto an RGBA surface anchored at the origin and returns
// its pixel store, 4 bytes per pixel, rows back to back.
func Pixels(img image.Image) []byte {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return rgba.Pix[:b.Dx()*b.Dy()*4]
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

// ToImage wraps a decoded buffer, widthPixels wide, as an image without
// copying it.
func ToImage(buf []byte, widthPixels int) (*image.RGBA, error) {
	if widthPixels <= 0 || len(buf)%(widthPixels*4) != 0 {
		return nil, errors.Wrapf(ErrDimensions, "%d bytes are not whole rows of %d pixels", len(buf), widthPixels)
	}
	return &image.RGBA{
		Pix:    buf,
		Stride: widthPixels * 4,
		Rect:   image.Rect(0, 0, widthPixels, len(buf)/(widthPixels*4)),
	}, nil
}

// MemCopy copies length bytes of src starting at readOffset into dst at
// writeOffset, clamping to whatever fits in both buffers. A negative length
// copies the rest of src. It returns the number of bytes copied.
func MemCopy(src, dst []byte, readOffset, writeOffset, length int) int {
	if readOffset < 0 || writeOffset < 0 || readOffset >= len(src) || writeOffset >= len(dst) {
		return 0
	}
	if length < 0 || readOffset+length > len(src) {
		length = len(src) - readOffset
	}
	return copy(dst[writeOffset:], src[readOffset:readOffset+length])
}

// CopyInto transfers a decoded buffer into the pixel store of dst, row by
// row, with the top-left corner at p. Rows and columns that fall outside dst
// are dropped.
func CopyInto(dst *image.RGBA, p image.Point, buf []byte, widthPixels int) error {
	src, err := ToImage(buf, widthPixels)
	if err != nil {
		return err
	}
	r := src.Bounds().Add(p).Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		read := (y-p.Y)*src.Stride + (r.Min.X-p.X)*4
		write := dst.PixOffset(r.Min.X, y)
		MemCopy(src.Pix, dst.Pix, read, write, r.Dx()*4)
	}
	return nil
}
