package mnist

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(n int, fill func(i, j int) byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, [4]uint32{imagesMagic, uint32(n), Rows, Cols})
	for i := 0; i < n; i++ {
		for j := 0; j < Pixels; j++ {
			buf.WriteByte(fill(i, j))
		}
	}
	return buf.Bytes()
}

func idxLabels(labels ...byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, [2]uint32{labelsMagic, uint32(len(labels))})
	buf.Write(labels)
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeSplit(t *testing.T, dir string, s Split, images, labels []byte) {
	t.Helper()
	imgFile, lblFile := filesFor(s)
	require.NoError(t, os.WriteFile(filepath.Join(dir, imgFile.archive()), gzipped(t, images), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, lblFile.archive()), gzipped(t, labels), 0o644))
}

func TestReadImagesRejectsMagic(t *testing.T) {
	raw := idxImages(1, func(int, int) byte { return 0 })
	binary.BigEndian.PutUint32(raw, 1234)

	_, _, _, _, err := readImages(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReadLabelsRejectsOutOfRange(t *testing.T) {
	_, err := readLabels(bytes.NewReader(idxLabels(3, 10)))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = readLabels(bytes.NewReader(idxLabels(3)[:8]))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReadRejectsOversizedCount(t *testing.T) {
	raw := idxImages(1, func(int, int) byte { return 0 })
	binary.BigEndian.PutUint32(raw[4:], 0xFFFFFFFF)
	_, _, _, _, err := readImages(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrCorrupt)

	lbl := idxLabels(1)
	binary.BigEndian.PutUint32(lbl[4:], maxExamples+1)
	_, err = readLabels(bytes.NewReader(lbl))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadScalesAndTransforms(t *testing.T) {
	dir := t.TempDir()
	images := idxImages(3, func(i, j int) byte {
		if j == 0 {
			return 255
		}
		return byte(i * 51)
	})
	writeSplit(t, dir, Test, images, idxLabels(7, 0, 9))

	ds, err := Load(dir, Test, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, Test, ds.Split())
	assert.Equal(t, int32(9), ds.Label(2))
	assert.Len(t, ds.Image(0), Pixels)
	assert.InDelta(t, 1.0, ds.Image(1)[0], 1e-6)
	assert.InDelta(t, 0.2, ds.Image(1)[5], 1e-6)

	norm, err := Load(dir, Test, Options{Transform: Normalize(0.5, 0.5), MaxSamples: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, norm.Len())
	assert.InDelta(t, 1.0, norm.Image(0)[0], 1e-6)
	assert.InDelta(t, -1.0, norm.Image(0)[1], 1e-6)
}

func TestLoadCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, Train, idxImages(2, func(int, int) byte { return 0 }), idxLabels(1))

	_, err := Load(dir, Train, Options{})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(t.TempDir(), Train, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDownloadVerifiesAndCaches(t *testing.T) {
	good := gzipped(t, idxLabels(1, 2, 3))
	sum := sha256.Sum256(good)
	saved := allFiles
	allFiles = []file{{name: "labels-idx1-ubyte", sha256: hex.EncodeToString(sum[:])}}
	t.Cleanup(func() { allFiles = saved })

	var badHits, goodHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		badHits.Add(1)
		_, _ = w.Write([]byte("not the archive"))
	}))
	defer bad.Close()
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits.Add(1)
		assert.Equal(t, "/labels-idx1-ubyte.gz", r.URL.Path)
		_, _ = w.Write(good)
	}))
	defer mirror.Close()

	dir := t.TempDir()
	var log bytes.Buffer
	opts := DownloadOptions{Mirrors: []string{bad.URL, mirror.URL + "/"}, Out: &log}
	require.NoError(t, Download(context.Background(), dir, opts))

	got, err := os.ReadFile(filepath.Join(dir, "labels-idx1-ubyte.gz"))
	require.NoError(t, err)
	assert.Equal(t, good, got)
	assert.Contains(t, log.String(), "trying next")

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.part"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	require.NoError(t, Download(context.Background(), dir, opts))
	assert.Equal(t, int32(1), badHits.Load())
	assert.Equal(t, int32(1), goodHits.Load(), "verified archive must not be fetched again")
}

func TestDownloadChecksumMismatch(t *testing.T) {
	saved := allFiles
	allFiles = []file{{name: "x", sha256: "00"}}
	t.Cleanup(func() { allFiles = saved })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	err := Download(context.Background(), t.TempDir(), DownloadOptions{Mirrors: []string{srv.URL}})
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestSynthetic(t *testing.T) {
	a := Synthetic(30, 1, nil)
	b := Synthetic(30, 1, nil)
	require.Equal(t, 30, a.Len())
	assert.Equal(t, a.Image(5), b.Image(5))
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, int32(i%Classes), a.Label(i))
	}
	// Bar rows for digit 3 start at row 6.
	assert.Greater(t, a.Image(3)[6*Cols+10], float32(0.7))
	assert.Less(t, a.Image(3)[27*Cols+27], float32(0.11))
}

func TestSubsetAndRandomSplit(t *testing.T) {
	ds := Synthetic(20, 2, nil)
	assert.Equal(t, 5, ds.Subset(5).Len())
	assert.Same(t, ds, ds.Subset(0))

	left, right, err := ds.RandomSplit(0.75, 3)
	require.NoError(t, err)
	assert.Equal(t, 15, left.Len())
	assert.Equal(t, 5, right.Len())

	_, _, err = ds.RandomSplit(1, 3)
	assert.Error(t, err)
}
