// Package textutil provides filename sanitization helpers for titles coming
// back from remote metadata.
package textutil
