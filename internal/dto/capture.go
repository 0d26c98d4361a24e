package dto

import "time"

// Capture is one processed camera frame: the annotated JPEG preview plus the
// number of faces the cascade found in it. FullJPEG holds the full-resolution
// frame and is only populated when at least one face was detected, since only
// those frames can be dispatched for verification.
type Capture struct {
	JPEG     []byte
	FullJPEG []byte
	Faces    int
	At       time.Time
}
