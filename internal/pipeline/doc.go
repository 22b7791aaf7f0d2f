// Package pipeline defines the contract between the batch engine and the
// surrounding application's per-item content analysis (face detection, object
// detection, EXIF extraction, persistence). The engine only cares whether an
// item succeeded; everything else about a Result is opaque to it.
package pipeline
