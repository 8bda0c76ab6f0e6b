// Package pkg provides the libraries behind pngsquare, a sprite sheet packer.
//
// # Overview
//
// pngsquare places a list of images on a square grid, writes them into one
// sheet and generates C loader code describing where each image landed.
//
// # Architecture
//
// The typical data flow:
//
//	spec file
//	    ↓
//	[spec] package (parse the directives and image list)
//	    ↓
//	[io] package (read image sizes, decode pixels)
//	    ↓
//	[pack] package (grid placement)
//	    ↓
//	[atlas] package (the placed layout)
//	    ↓
//	[render/sink] package (PNG, C, JSON, PDF, XLSX)
//
// [pipeline] runs these stages with caching through [cache]. The HTTP API
// persists atlases through [storage].
//
// # Quick Start
//
//	items := []pack.Item{
//	    {Name: "tile", W: 32, H: 32},
//	    {Name: "blob", W: 16, H: 16},
//	}
//	res, err := pack.Pack(items, 16)
//	if err != nil {
//	    return err
//	}
//	a, err := atlas.FromItems("textures", items, res)
//	out, err := sink.RenderC(a, sink.CConfig{Include: "textures.h", PNGPath: "textures.png"})
//
// # Main Packages
//
// [pack] - The packer: an occupancy grid that grows in quadrupling steps and
// a frontier of candidate corners ordered by distance from the origin.
//
// [spec] - The line-oriented spec format and its TOML equivalent.
//
// [atlas] - The serializable layout shared by every output and backend.
//
// [render/sink] - Output renderers.
//
// [pipeline] - Load, pack and render with caching and verification.
//
// [cache] - Cache backends (file, memory, Redis) and key derivation.
//
// [storage] - Atlas stores (memory, file, MongoDB) used by the API.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Coded errors and input validation.
//
// [buildinfo] - Version information set at link time.
package pkg
