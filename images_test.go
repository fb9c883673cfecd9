package folio

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleImage(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		maxWidth   int
		wantResize bool
		wantW      int
		wantH      int
		wantFormat string
	}{
		{"wide jpeg", encodeTestJPEG(t, 1200, 600), 600, true, 600, 300, "jpeg"},
		{"narrow jpeg", encodeTestJPEG(t, 300, 200), 600, false, 0, 0, ""},
		{"exact width", encodeTestJPEG(t, 600, 10), 600, false, 0, 0, ""},
		{"thin strip", encodeTestJPEG(t, 4000, 1), 100, true, 100, 1, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok, err := downscaleImage(tt.data, tt.maxWidth)
			if err != nil {
				t.Fatalf("downscaleImage: %v", err)
			}
			if ok != tt.wantResize {
				t.Fatalf("resized = %v, want %v", ok, tt.wantResize)
			}
			if !ok {
				return
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
			if format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
		})
	}
}

func TestDownscaleImageInvalid(t *testing.T) {
	if _, _, err := downscaleImage([]byte("not an image"), 100); err == nil {
		t.Fatal("expected error for invalid image data")
	}
}

func TestCopyStatic(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTestPNG(t, filepath.Join(src, "img", "big.png"), 400, 200)
	writeTestPNG(t, filepath.Join(src, "img", "small.png"), 50, 50)
	writeTestFile(t, filepath.Join(src, "docs", "cv.pdf"), "%PDF-fake")

	res, err := copyStatic(src, dst, 100)
	if err != nil {
		t.Fatalf("copyStatic: %v", err)
	}
	if res.Copied != 3 || res.Resized != 1 {
		t.Errorf("result = %+v, want 3 copied, 1 resized", res)
	}

	f, err := os.Open(filepath.Join(dst, "img", "big.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("big.png = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}

	small, _ := os.ReadFile(filepath.Join(src, "img", "small.png"))
	copied, _ := os.ReadFile(filepath.Join(dst, "img", "small.png"))
	if !bytes.Equal(small, copied) {
		t.Error("small.png should be copied verbatim")
	}
	if got := readTestFile(t, filepath.Join(dst, "docs", "cv.pdf")); got != "%PDF-fake" {
		t.Errorf("cv.pdf = %q", got)
	}
}

func TestCopyStaticResizeDisabled(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTestPNG(t, filepath.Join(src, "big.png"), 400, 20)

	res, err := copyStatic(src, dst, 0)
	if err != nil {
		t.Fatalf("copyStatic: %v", err)
	}
	if res.Resized != 0 {
		t.Errorf("resized %d images with resizing disabled", res.Resized)
	}
}

func TestCopyStaticMissingDir(t *testing.T) {
	res, err := copyStatic(filepath.Join(t.TempDir(), "missing"), t.TempDir(), 100)
	if err != nil {
		t.Fatalf("copyStatic: %v", err)
	}
	if res.Copied != 0 {
		t.Errorf("copied %d files from a missing directory", res.Copied)
	}
}

func TestCopyStaticBrokenImage(t *testing.T) {
	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "broken.jpg"), "garbage")

	if _, err := copyStatic(src, t.TempDir(), 100); err == nil {
		t.Fatal("expected error for undecodable image")
	}
}
