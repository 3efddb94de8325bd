package mnist

import (
	"errors"
	"path/filepath"
)

// Sentinel errors.
var (
	// ErrCorrupt reports a file that is not a well-formed MNIST IDX file.
	ErrCorrupt = errors.New("mnist: corrupt file")

	// ErrChecksum reports a download whose SHA-256 digest does not match.
	ErrChecksum = errors.New("mnist: checksum mismatch")
)

// Split selects the train or test partition.
type Split int

// Partitions of the dataset.
const (
	Train Split = iota
	Test
)

func (s Split) String() string {
	if s == Train {
		return "train"
	}
	return "test"
}

// Size returns the number of examples in the full split.
func (s Split) Size() int {
	if s == Train {
		return 60000
	}
	return 10000
}

// Image geometry.
const (
	Rows   = 28
	Cols   = 28
	Pixels = Rows * Cols
	// Classes is the number of digit labels.
	Classes = 10
)

// DefaultMirrors lists the download locations tried in order.
var DefaultMirrors = []string{
	"https://ossci-datasets.s3.amazonaws.com/mnist/",
	"http://yann.lecun.com/exdb/mnist/",
}

// file is one of the four gzip IDX archives.
type file struct {
	name   string
	sha256 string
}

var (
	trainImages = file{"train-images-idx3-ubyte", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"}
	trainLabels = file{"train-labels-idx1-ubyte", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"}
	testImages  = file{"t10k-images-idx3-ubyte", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"}
	testLabels  = file{"t10k-labels-idx1-ubyte", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"}
)

var allFiles = []file{trainImages, trainLabels, testImages, testLabels}

func (f file) archive() string { return f.name + ".gz" }

func filesFor(s Split) (images, labels file) {
	if s == Train {
		return trainImages, trainLabels
	}
	return testImages, testLabels
}

// RawDir returns the directory the archives are cached in under root,
// following the <root>/MNIST/raw layout.
func RawDir(root string) string {
	return filepath.Join(root, "MNIST", "raw")
}
