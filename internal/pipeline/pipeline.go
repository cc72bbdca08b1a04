/**
 * Extraction pipeline orchestration.
 *
 * One run per submitted image: preprocess -> recognize -> extract. The
 * interactive flow naturally serializes submissions, but the busy flag
 * guards against overlap anyway since the engine is a single-owner
 * resource. Preprocessing failures are absorbed (recognition still gets the
 * original image); recognition failures propagate as a single error; field
 * misses degrade to defaults inside the extractor.
 */

package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/goldengeneration/signup-service/internal/apperrors"
	"github.com/goldengeneration/signup-service/internal/logging"
)

// Pipeline ties the preprocessor, recognizer and extractor together.
type Pipeline struct {
	pre  *Preprocessor
	rec  TextReader
	ext  *Extractor
	log  *logging.Logger
	busy atomic.Bool
}

// New builds a pipeline with the default tesseract-backed recognizer.
func New(minImageWidth int, languages string, log *logging.Logger) *Pipeline {
	return NewWithRecognizer(minImageWidth, NewRecognizer(languages, log.Named("ocr")), log)
}

// NewWithRecognizer builds a pipeline around a caller-supplied recognizer.
func NewWithRecognizer(minImageWidth int, rec TextReader, log *logging.Logger) *Pipeline {
	return &Pipeline{
		pre: NewPreprocessor(minImageWidth, log.Named("preprocess")),
		rec: rec,
		ext: NewExtractor(log.Named("extract")),
		log: log,
	}
}

// Run executes one extraction over a raw image. It returns a complete
// (possibly sparse) identity record, or an error only when the recognition
// engine itself fails.
func (p *Pipeline) Run(ctx context.Context, raw *RawImage) (*ExtractedIdentity, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, apperrors.NewConflictError("an extraction is already in progress")
	}
	defer p.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enhanced := p.pre.Enhance(raw)
	if enhanced.Passthrough {
		p.log.Warn("running recognition on unprocessed image", "source", raw.Source)
	}

	result, err := p.rec.Recognize(enhanced.Data)
	if err != nil {
		return nil, err
	}

	identity := p.ext.Extract(result)
	p.log.Info("extraction complete",
		"idFound", identity.IDNumber != "",
		"namesFound", identity.FirstName != "" && identity.LastName != "",
		"dobFound", identity.DateOfBirth != "")
	return &identity, nil
}
