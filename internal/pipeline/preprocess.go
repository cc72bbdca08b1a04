/**
 * Image preprocessor.
 *
 * Upscales narrow scans, boosts contrast and brightness, then binarizes
 * every pixel to pure black/white so character strokes survive recognition.
 * Any internal failure falls back to the untouched original bytes; the
 * preprocessor never fails the caller.
 */

package pipeline

import (
	"bytes"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/goldengeneration/signup-service/internal/logging"
)

// binarizeThreshold is the channel-average midpoint above which a pixel is
// forced to white, otherwise black. Alpha is left untouched.
const binarizeThreshold = 128

// Filter strengths applied before binarization, matching a contrast(150%)
// brightness(110%) saturate(110%) boost.
const (
	contrastBoost   = 50
	brightnessBoost = 10
	saturationBoost = 10
)

// Preprocessor enhances raw ID-card images for recognition.
type Preprocessor struct {
	minWidth int
	log      *logging.Logger
}

// NewPreprocessor creates a preprocessor that upscales images narrower than
// minWidth (preserving aspect ratio) before enhancement.
func NewPreprocessor(minWidth int, log *logging.Logger) *Preprocessor {
	return &Preprocessor{minWidth: minWidth, log: log}
}

// Enhance produces a binarized PNG at the target resolution. On any decode,
// transform or encode failure it returns the original bytes unchanged with
// Passthrough set, so recognition still gets an attempt.
func (p *Preprocessor) Enhance(raw *RawImage) *EnhancedImage {
	src, err := imaging.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		p.log.Warn("image decode failed, passing original through", "error", err)
		return p.passthrough(raw)
	}

	img := src
	if img.Bounds().Dx() < p.minWidth {
		img = imaging.Resize(img, p.minWidth, 0, imaging.Lanczos)
	}

	img = imaging.AdjustContrast(img, contrastBoost)
	img = imaging.AdjustBrightness(img, brightnessBoost)
	img = imaging.AdjustSaturation(img, saturationBoost)

	img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		avg := (int(c.R) + int(c.G) + int(c.B)) / 3
		if avg > binarizeThreshold {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return color.NRGBA{R: 0, G: 0, B: 0, A: c.A}
	})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		p.log.Warn("enhanced image encode failed, passing original through", "error", err)
		return p.passthrough(raw)
	}

	bounds := img.Bounds()
	return &EnhancedImage{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

func (p *Preprocessor) passthrough(raw *RawImage) *EnhancedImage {
	return &EnhancedImage{Data: raw.Data, Passthrough: true}
}
