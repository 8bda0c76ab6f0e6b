// Package io reads sprite images and writes sprite sheets.
//
// # Overview
//
// Sprites are PNG files. Loading decodes them concurrently, bounded by a job
// limit, and returns them in the order they were requested so they line up
// with the spec's image list. Composition pastes each sprite onto an RGBA
// canvas at its atlas position, alpha-blended over a transparent background.
//
// # Import
//
// Use [LoadImages] to decode a batch of files, or [LoadSizes] when only the
// dimensions are needed (for example to pack without rendering):
//
//	imgs, err := io.LoadImages(ctx, paths, 8)
//	if err != nil {
//	    return err
//	}
//
// A missing file yields a FILE_NOT_FOUND error and a file that is not a valid
// PNG yields INVALID_IMAGE. The first failure cancels the remaining decodes.
//
// # Export
//
// [Compose] builds the sheet from an [atlas.Atlas] and the decoded sprites;
// [EncodePNG] and [ExportPNG] write it out. [Thumbnail] produces a scaled
// copy for previews.
//
// # Concurrency
//
// All functions are safe for concurrent use. Decoded images are never shared
// between calls.
package io
