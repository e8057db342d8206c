package extract

import "fmt"

// SegmentationError reports a failed segmentation call: the completion call
// failed or its response was not a JSON array of strings.
type SegmentationError struct {
	Response string // raw model output, empty when the call itself failed
	Err      error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation failed: %v", e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// StructuringError reports a failed structuring call: the completion call
// failed or its response did not decode into a Listing.
type StructuringError struct {
	Response string
	Err      error
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structuring failed: %v", e.Err)
}

func (e *StructuringError) Unwrap() error { return e.Err }
