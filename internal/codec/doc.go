// Package codec reads and writes raster images in the png, jpeg, bmp, tga and
// hdr formats.
//
// The format is chosen from the file extension. Decoding keeps the file's
// native depth: 8 or 16 bit for png, 8 bit for jpeg, bmp and tga, and float
// for Radiance hdr. Gray files decode to one channel, opaque color to three
// and files with transparency to four. Tga and hdr headers that declare more
// than MaxPixels pixels are rejected before any pixel data is read.
//
// # Writing
//
// 8-bit rasters can be written to every format except hdr. Float rasters can
// only be written to hdr, and 16-bit rasters to none; convert them with
// raster.ConvertDepth first. Unsupported combinations fail with an
// unsupported_format error before the output file is created.
//
// # Caching
//
// Cache keeps decoded rasters keyed by path and depth for callers that run
// several operations on the same file.
package codec
