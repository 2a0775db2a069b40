// Package media defines the MediaItem model and the deterministic file
// naming contract shared between the fetcher profiles and the correlator.
package media
