/**
 * Shared data structures for the ID-document extraction pipeline.
 */

package pipeline

import "image"

// ImageSource tags where an uploaded image came from.
type ImageSource string

const (
	SourceUpload ImageSource = "upload"
	SourceCamera ImageSource = "camera"
)

// RawImage is the image as received from the client, before any processing.
type RawImage struct {
	Data     []byte
	MimeType string
	Source   ImageSource
}

// EnhancedImage is the preprocessed image handed to the recognizer.
// When preprocessing fails internally, Passthrough is set and Data holds
// the original bytes unchanged.
type EnhancedImage struct {
	Data        []byte
	Width       int
	Height      int
	Passthrough bool
}

// RecognitionResult is the read-only output of one OCR invocation.
// Lines preserve reading order; Words carry box-level metadata when the
// engine provides it.
type RecognitionResult struct {
	Lines []string
	Words []RecognizedWord
}

// RecognizedWord is a single word with its bounding box and confidence.
type RecognizedWord struct {
	Text        string
	BoundingBox image.Rectangle
	Confidence  float64
}

// Gender values for the identity record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ExtractedIdentity is the pipeline's terminal output. Every field degrades
// independently to its zero default; the record as a whole is always
// produced. IDNumber is either empty or exactly 9 ASCII digits; DateOfBirth
// is either empty or "YYYY-MM-DD".
type ExtractedIdentity struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IDNumber    string `json:"idNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}
