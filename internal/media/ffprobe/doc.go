// Package ffprobe shells out to ffprobe and exposes the parsed stream and
// container metadata the correlator and provenance store rely on.
package ffprobe
