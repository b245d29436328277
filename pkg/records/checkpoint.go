package records

import (
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Checkpoint holds the terminal documents of a previous run, by name.
type Checkpoint map[string]model.Document

// LoadCheckpoint reads the checkpoint at path. A missing file is an empty checkpoint. An entry cut short by a crash
// is dropped.
func LoadCheckpoint(path string) (Checkpoint, error) {
	ckpt := Checkpoint{}

	err := ReadBundle(path, func(doc model.Document) error {
		ckpt[doc.Name] = doc

		return nil
	})
	switch {
	case err == nil, errors.Is(err, os.ErrNotExist), errors.Is(err, io.ErrUnexpectedEOF):
		return ckpt, nil
	default:
		return nil, errors.Wrapf(err, "unable to load checkpoint %s", path)
	}
}

// CreateCheckpoint starts an empty checkpoint at path. Every document is flushed as soon as it is written.
func CreateCheckpoint(path string) (*BundleWriter, error) {
	return openBundle(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, true)
}

// ResumeCheckpoint loads the checkpoint at path and returns a writer positioned after its entries.
// The file is rewritten first, so a tail cut short by a crash does not corrupt the entries appended next.
func ResumeCheckpoint(path string) (Checkpoint, *BundleWriter, error) {
	ckpt, err := LoadCheckpoint(path)
	if err != nil {
		return nil, nil, err
	}

	tmp := path + ".tmp"

	writer, err := openBundle(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, true)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(ckpt))
	for name := range ckpt {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		err := writer.WriteDocument(ckpt[name])
		if err != nil {
			_ = writer.Close()

			return nil, nil, err
		}
	}

	err = os.Rename(tmp, path)
	if err != nil {
		_ = writer.Close()

		return nil, nil, errors.Wrapf(err, "unable to replace checkpoint %s", path)
	}

	return ckpt, writer, nil
}
