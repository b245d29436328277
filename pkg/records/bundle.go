package records

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// BundleWriter appends entries to a bundle. It is safe for concurrent use.
type BundleWriter struct {
	mu    sync.Mutex
	file  *os.File
	zw    *zstd.Encoder
	enc   *cbor.Encoder
	count int
	// flush after every entry so a crash loses at most the entry being written
	flushEach bool
}

// CreateBundle truncates or creates the bundle at path.
func CreateBundle(path string) (*BundleWriter, error) {
	return openBundle(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, false)
}

func openBundle(path string, flag int, flushEach bool) (*BundleWriter, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create directory for %s", path)
	}

	file, err := os.OpenFile(path, flag, 0o644) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open bundle %s", path)
	}

	zw, err := zstd.NewWriter(file, encoderOptions...)
	if err != nil {
		_ = file.Close()

		return nil, errors.Wrap(err, "unable to create zstd writer")
	}

	return &BundleWriter{
		file:      file,
		zw:        zw,
		enc:       encMode.NewEncoder(zw),
		flushEach: flushEach,
	}, nil
}

// Write implements Sink.
func (w *BundleWriter) Write(rec model.Record) error {
	return w.write(entry{Name: rec.Name, Content: rec.Content})
}

// WriteDocument keeps the failed flag of the document.
func (w *BundleWriter) WriteDocument(doc model.Document) error {
	return w.write(entry{Name: doc.Name, Content: doc.Content, Failed: doc.Failed})
}

func (w *BundleWriter) write(ent entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.enc.Encode(ent)
	if err != nil {
		return errors.Wrapf(err, "unable to encode %s", ent.Name)
	}
	w.count++

	if w.flushEach {
		err = w.zw.Flush()
		if err != nil {
			return errors.Wrap(err, "unable to flush bundle")
		}
	}

	return nil
}

// Count returns the number of entries written so far.
func (w *BundleWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.count
}

func (w *BundleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.zw.Close()
	if err != nil {
		_ = w.file.Close()

		return errors.Wrap(err, "unable to close zstd writer")
	}

	return errors.Wrap(w.file.Close(), "unable to close bundle")
}

// ReadBundle calls fn for every entry of the bundle at path.
func ReadBundle(path string, fn func(doc model.Document) error) error {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "unable to open bundle %s", path)
	}
	defer file.Close() //nolint:errcheck

	return readEntries(file, fn)
}

func readEntries(r io.Reader, fn func(doc model.Document) error) error {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return errors.Wrap(err, "unable to create zstd reader")
	}
	defer zr.Close()

	dec := decMode.NewDecoder(zr)
	for {
		var ent entry

		err := dec.Decode(&ent)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "unable to decode entry")
		}

		err = fn(model.Document{Name: ent.Name, Content: ent.Content, Failed: ent.Failed})
		if err != nil {
			return err
		}
	}
}

// BundleSource reads records from every bundle matching a glob pattern, in lexical order of the paths.
type BundleSource struct {
	Pattern string
}

func (s BundleSource) Each(ctx context.Context, fn func(rec model.Record) error) error {
	paths, err := filepath.Glob(s.Pattern)
	if err != nil {
		return errors.Wrapf(err, "invalid pattern %s", s.Pattern)
	}

	for _, path := range paths {
		err := ReadBundle(path, func(doc model.Document) error {
			if err := ctx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			return fn(doc.Record())
		})
		if err != nil {
			return err
		}
	}

	return nil
}
