// Package replay implements a fixed-capacity experience replay store.
//
// Records are fixed-width rows of float64 kept in one flat ring of
// capacity × width values. Once the ring is full, each append overwrites the
// oldest row.
//
// Reads happen in passes. A pass visits every stored row exactly once in a
// uniformly random order; [Buffer.Batch] hands the pass out in chunks of at
// most the requested size, the last chunk being short when the pass does not
// divide evenly. The next call after a pass completes starts a new one.
//
//	buf, _ := replay.New(10000, 21, replay.WithSeed(1))
//	_ = buf.Append(record)
//	batch, _ := buf.Batch(64) // *mat.Dense, rows × 21
package replay
