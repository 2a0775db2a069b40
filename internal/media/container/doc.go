// Package container performs the multi-input remux operations: stripping
// selected streams from a container and embedding overlay tracks.
//
// Every operation writes to a temporary sibling of its output path and
// renames into place only on success, so a target file is either fully
// replaced or left untouched.
package container
