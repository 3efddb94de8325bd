// Package dataset provides the batch iterator every tutorial trains with.
//
// A Source is any indexed collection of flattened images with integer
// labels (the mnist subpackage provides the handwritten-digit one). A
// Loader walks a Source in fixed-size batches, optionally shuffled with a
// seeded generator, and BatchImages/BatchLabels turn a batch into tensors
// on a backend.
package dataset

// Source is an indexed image classification dataset.
type Source interface {
	// Len returns the number of examples.
	Len() int

	// Image returns the flattened, already transformed pixels of example i.
	// Callers must not modify the returned slice.
	Image(i int) []float32

	// Label returns the class of example i.
	Label(i int) int32
}
