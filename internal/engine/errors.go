package engine

import "errors"

// Stage failure errors. The pipeline records the failing stage's error
// as the document's failure reason.
var (
	ErrExtraction = errors.New("text extraction produced no content")
	ErrEmbedding  = errors.New("embedding request failed")
	ErrAnalysis   = errors.New("analysis produced no usable process definition")
	ErrGeneration = errors.New("process definition cannot be rendered")
)
