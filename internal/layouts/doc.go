// Package layouts turns CUE layout specifications into layout tables.
//
// The evaluator never computes type layouts itself: sizes, alignments and
// validity properties are inputs, produced elsewhere and declared here.
// A layout file is a CUE document with a top-level `layout` struct mapping
// type paths to their descriptors:
//
//	layout: {
//		"u32":       {size: 4, align: 4, zero_valid: true, uninit_valid: true}
//		"*const u8": {size: 8, align: 8, pointee: "u8"}
//	}
//
// Compiled tables merge over the built-in primitives, so a scenario only
// declares the types the target program actually adds.
package layouts
