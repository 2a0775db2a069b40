// Package overlay correlates danmaku overlay files with their owning
// container and decides which container streams survive a rebuild.
//
// The overlay track title and language constants here are a protocol
// contract with the container merger: the merger writes them when
// embedding, this package tests against them when stripping.
package overlay
