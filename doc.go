// Package streamable provides a lazy, composable stream-processing
// pipeline over pull-based iterators.
//
// A [Stream] is an immutable, linear chain of operator descriptors
// rooted at a source factory. Calling [Stream.Open] walks the chain
// once and returns a single-pass [Iterator]; materializing the same
// Stream again re-invokes the source factory and yields an
// independent iterator.
package streamable
