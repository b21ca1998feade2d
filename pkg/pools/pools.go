// Package pools provides buffer pooling for block-sized transfers.
//
// Sort passes allocate the same few buffer sizes over and over: one
// encode buffer per disk transfer and three record blocks per pairwise
// merge. The pools here hand those buffers back out instead of leaving
// them to the GC:
//
//   - SlicePool: power-of-two size-class pooling for slices of any type
//   - BytePool: SlicePool[byte] plus package-level helpers for encode buffers
package pools
