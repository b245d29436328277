package records

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

var ErrDocsPerFile = errors.New("docs per file must be greater than 0")

// Load packs the records of src into bundles named <prefix>_0, <prefix>_1, ... holding at most docsPerFile records
// each. It returns the paths written.
func Load(ctx context.Context, src Source, prefix string, docsPerFile int) ([]string, error) {
	if docsPerFile < 1 {
		return nil, errors.Wrapf(ErrDocsPerFile, "got %d", docsPerFile)
	}

	var (
		paths   []string
		current *BundleWriter
	)

	err := src.Each(ctx, func(rec model.Record) error {
		if current != nil && current.Count() >= docsPerFile {
			if err := current.Close(); err != nil {
				return err
			}
			current = nil
		}

		if current == nil {
			path := fmt.Sprintf("%s_%d", prefix, len(paths))

			bundle, err := CreateBundle(path)
			if err != nil {
				return err
			}
			current = bundle
			paths = append(paths, path)
		}

		return current.Write(rec)
	})

	if current != nil {
		closeErr := current.Close()
		if err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return paths, errors.Wrap(err, "unable to load records")
	}

	return paths, nil
}

// Unload writes every record of the bundles matching pattern to dir. It returns the number of records written.
func Unload(ctx context.Context, pattern, dir string) (int, error) {
	sink, err := NewDirSink(dir)
	if err != nil {
		return 0, err
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid pattern %s", pattern)
	}
	if len(matches) == 0 {
		return 0, errors.Errorf("no bundle matches %s", pattern)
	}

	total := 0
	err = BundleSource{Pattern: pattern}.Each(ctx, func(rec model.Record) error {
		total++

		return sink.Write(rec)
	})
	if err != nil {
		return total, errors.Wrap(err, "unable to unload records")
	}

	return total, nil
}
