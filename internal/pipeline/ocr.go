/**
 * OCR invoker.
 *
 * Drives Tesseract through gosseract with parameters tuned for printed ID
 * cards: single-column page segmentation, a digit+Hebrew character
 * whitelist, noise removal disabled and dual legacy+LSTM engines. One
 * client is created and torn down per recognition call so a failed call
 * cannot leak a native recognition context.
 */

package pipeline

import (
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/goldengeneration/signup-service/internal/apperrors"
	"github.com/goldengeneration/signup-service/internal/logging"
)

// idCardWhitelist restricts recognition to digits, the Hebrew alphabet
// (including final forms) and minimal punctuation, suppressing noise glyphs.
const idCardWhitelist = "0123456789אבגדהוזחטיכסעפצקרשתםןץףך.- "

// tesseractVariables are the engine parameters set on every invocation.
// Heavy noise removal degrades small printed glyphs, so it stays off.
var tesseractVariables = map[string]string{
	"preserve_interword_spaces": "1",
	"textord_heavy_nr":          "0",
	"textord_min_linesize":      "2.5",
	"tessedit_ocr_engine_mode":  "2", // legacy + LSTM for maximum recall
	"tessedit_fix_fuzzy_spaces": "1",
	"load_system_dawg":          "1",
	"load_freq_dawg":            "1",
}

// Recognizer runs the external OCR engine over an enhanced image.
type Recognizer struct {
	languages []string
	log       *logging.Logger
}

// NewRecognizer creates a recognizer for the given "+"-separated tesseract
// language selection, e.g. "heb+eng".
func NewRecognizer(languages string, log *logging.Logger) *Recognizer {
	return &Recognizer{
		languages: strings.Split(languages, "+"),
		log:       log,
	}
}

// TextReader is the capability the extractor consumes: an image in,
// recognized text and word boxes out.
type TextReader interface {
	Recognize(image []byte) (*RecognitionResult, error)
}

// Recognize runs one OCR pass and returns recognized lines plus word boxes.
// The engine client is released on every exit path.
func (r *Recognizer) Recognize(image []byte) (*RecognitionResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return nil, apperrors.NewRecognitionError("load languages", err)
	}

	// Documents are single-column ID cards.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_COLUMN); err != nil {
		return nil, apperrors.NewRecognitionError("configure page segmentation", err)
	}

	if err := client.SetWhitelist(idCardWhitelist); err != nil {
		return nil, apperrors.NewRecognitionError("configure whitelist", err)
	}

	for key, value := range tesseractVariables {
		if err := client.SetVariable(gosseract.SettableVariable(key), value); err != nil {
			return nil, apperrors.NewRecognitionError("configure engine", err)
		}
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, apperrors.NewRecognitionError("set image", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, apperrors.NewRecognitionError("recognize", err)
	}

	result := &RecognitionResult{Lines: splitLines(text)}

	// Word boxes are best-effort metadata; their absence never fails the call.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		r.log.Debug("word box extraction unavailable", "error", err)
	} else {
		result.Words = make([]RecognizedWord, 0, len(boxes))
		for _, b := range boxes {
			result.Words = append(result.Words, RecognizedWord{
				Text:        b.Word,
				BoundingBox: b.Box,
				Confidence:  b.Confidence,
			})
		}
	}

	r.log.Info("recognition complete", "lines", len(result.Lines), "words", len(result.Words))
	return result, nil
}

// splitLines splits raw engine output into trimmed, non-empty lines,
// preserving reading order.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
