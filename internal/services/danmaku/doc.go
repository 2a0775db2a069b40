// Package danmaku acquires comment overlay tracks for downloaded items.
//
// Two backends exist: yutto downloads styled overlays directly for the
// sites it supports, and the convert chain fetches raw comment files
// through the downloader and renders them locally. Both normalize their
// output names onto the item identifier convention so the embedding step
// can correlate overlays with containers.
package danmaku
