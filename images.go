package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 80

// staticResult counts what copyStatic did.
type staticResult struct {
	Copied  int
	Resized int
}

// copyStatic copies the user static directory into dst. JPEG and PNG files
// wider than maxWidth are downscaled on the way. A missing static directory
// is not an error.
func copyStatic(src, dst string, maxWidth int) (staticResult, error) {
	var res staticResult
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return res, nil
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		resized, err := copyStaticFile(path, out, maxWidth)
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		res.Copied++
		if resized {
			res.Resized++
		}
		return nil
	})
	return res, err
}

func copyStaticFile(src, dst string, maxWidth int) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	if maxWidth > 0 && isResizable(src) {
		out, ok, err := downscaleImage(data, maxWidth)
		if err != nil {
			return false, err
		}
		if ok {
			return true, os.WriteFile(dst, out, 0o644)
		}
	}
	return false, os.WriteFile(dst, data, 0o644)
}

func isResizable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// downscaleImage resizes data to maxWidth, keeping the aspect ratio and the
// original format. It reports false when the image is already narrow enough.
func downscaleImage(data []byte, maxWidth int) ([]byte, bool, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= maxWidth {
		return nil, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := encodeImage(&buf, dst, format); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}
