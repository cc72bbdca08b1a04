package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/goldengeneration/signup-service/internal/logging"
)

func testPreprocessor(minWidth int) *Preprocessor {
	return NewPreprocessor(minWidth, logging.NewLogger("test", logging.LevelError))
}

// encodeTestImage renders a small two-tone card: dark text band on a light
// background.
func encodeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{R: 220, G: 220, B: 210, A: 255})
			}
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestEnhanceUpscalesNarrowImages(t *testing.T) {
	raw := &RawImage{Data: encodeTestImage(t, 16, 8), Source: SourceUpload}

	enhanced := testPreprocessor(64).Enhance(raw)
	if enhanced.Passthrough {
		t.Fatal("expected an enhanced image, got passthrough")
	}
	if enhanced.Width != 64 {
		t.Errorf("Width = %d, want 64", enhanced.Width)
	}
	if enhanced.Height != 32 {
		t.Errorf("Height = %d, want 32 (aspect ratio preserved)", enhanced.Height)
	}
}

func TestEnhanceKeepsWideImagesAtSize(t *testing.T) {
	raw := &RawImage{Data: encodeTestImage(t, 128, 32), Source: SourceUpload}

	enhanced := testPreprocessor(64).Enhance(raw)
	if enhanced.Passthrough {
		t.Fatal("expected an enhanced image, got passthrough")
	}
	if enhanced.Width != 128 || enhanced.Height != 32 {
		t.Errorf("dimensions = %dx%d, want 128x32", enhanced.Width, enhanced.Height)
	}
}

func TestEnhanceBinarizesEveryPixel(t *testing.T) {
	raw := &RawImage{Data: encodeTestImage(t, 32, 16), Source: SourceCamera}

	enhanced := testPreprocessor(32).Enhance(raw)
	if enhanced.Passthrough {
		t.Fatal("expected an enhanced image, got passthrough")
	}

	decoded, err := imaging.Decode(bytes.NewReader(enhanced.Data))
	if err != nil {
		t.Fatalf("failed to decode enhanced image: %v", err)
	}

	nrgba := imaging.Clone(decoded)
	bounds := nrgba.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := nrgba.NRGBAAt(x, y)
			white := c.R == 255 && c.G == 255 && c.B == 255
			black := c.R == 0 && c.G == 0 && c.B == 0
			if !white && !black {
				t.Fatalf("pixel (%d,%d) = %v, want pure black or white", x, y, c)
			}
		}
	}
}

func TestEnhanceFallsBackOnUndecodableInput(t *testing.T) {
	raw := &RawImage{Data: []byte("this is not an image"), Source: SourceUpload}

	enhanced := testPreprocessor(64).Enhance(raw)
	if !enhanced.Passthrough {
		t.Fatal("expected passthrough for undecodable input")
	}
	if !bytes.Equal(enhanced.Data, raw.Data) {
		t.Error("passthrough must return the original bytes unchanged")
	}
}
