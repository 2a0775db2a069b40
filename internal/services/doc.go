// Package services defines the shared error taxonomy and context annotations
// used by every external-capability adapter and the pipeline workflows.
//
// Errors are tagged with sentinel markers so callers can classify failures
// without string matching: usage errors terminate the process immediately,
// validation and not-found errors fail the current workflow step, and
// external-tool or transient errors are eligible for whole-operation retry.
package services
