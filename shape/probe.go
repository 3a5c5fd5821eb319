package shape

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Probe reads the intrinsic pixel size of an image file and reports it in
// points, assuming 96 DPI. The file type is sniffed from the header first so
// non-image content fails with a useful error instead of a decode panic.
func Probe(src string) (w, h float64, err error) {
	if src == "" {
		return 0, 0, fmt.Errorf("no image source")
	}
	f, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, 0, fmt.Errorf("reading image header: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil {
		return 0, 0, fmt.Errorf("sniffing image type: %w", err)
	}
	if kind == filetype.Unknown || !filetype.IsImage(head) {
		return 0, 0, fmt.Errorf("%s: not a recognized image", src)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding %s image config: %w", kind.Extension, err)
	}
	return pxToPt(cfg.Width), pxToPt(cfg.Height), nil
}

// ProbeBytes is Probe for in-memory image data.
func ProbeBytes(data []byte) (w, h float64, err error) {
	if !filetype.IsImage(data) {
		return 0, 0, fmt.Errorf("not a recognized image")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image config: %w", err)
	}
	return pxToPt(cfg.Width), pxToPt(cfg.Height), nil
}

func pxToPt(px int) float64 {
	return float64(px) * 72.0 / 96.0
}
