// Package pipeline orchestrates the download workflows: media fetch,
// comment acquisition, overlay correlation, container merging, and the
// in-place update operations driven by embedded provenance.
//
// Each source URL is processed inside an isolated workspace and final
// containers only ever appear at their destination atomically. Workflow
// failures are per-source: a batch reports the union of its failures
// instead of stopping at the first one.
package pipeline
