// Package sink renders a packed [atlas.Atlas] into output artifacts.
//
// # Formats
//
//   - PNG: the composed sprite sheet ([RenderPNG])
//   - JSON: the atlas manifest with sprite rectangles ([RenderJSON])
//   - C: an SDL2 loader header and source that expose one SDL_Rect per
//     sprite ([RenderC])
//   - PDF: a one-page layout preview with sprite outlines ([RenderPDF])
//   - XLSX: a workbook listing every placement ([RenderXLSX])
//
// Every renderer returns bytes and performs no file I/O, so the same output
// can be written to disk by the CLI, cached, or served over HTTP.
//
// Renderers that accept options follow the functional option pattern:
//
//	data, err := sink.RenderJSON(a, sink.WithJSONImage("textures.png"))
//
// [atlas.Atlas]: github.com/matzehuels/pngsquare/pkg/atlas.Atlas
package sink
