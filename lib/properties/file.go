package properties

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/bioKV/lib/recstore"
)

// --------------------------------------------------------------------------
// PropertiesFile
// --------------------------------------------------------------------------

// PropertiesFile is a Properties set persisted in a file on disk. The
// constructor creates the file when it does not exist (read-write mode
// only). Writes accumulate in memory until Sync.
type PropertiesFile struct {
	*Properties
	filename string
	mode     recstore.Mode
}

// OpenFile loads (or creates) the properties file at filename.
// A malformed line fails with StrategyError; a read-only open of a missing
// file fails with NotFound.
func OpenFile(filename string, mode recstore.Mode) (*PropertiesFile, error) {
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		if mode == recstore.ReadOnly {
			return nil, recstore.NewErrorf(recstore.RetCNotFound,
				"properties file %s does not exist", filename)
		}
		pf := &PropertiesFile{
			Properties: New(),
			filename:   filename,
			mode:       mode,
		}
		if err := pf.Sync(); err != nil {
			return nil, err
		}
		return pf, nil
	}
	if err != nil {
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"open properties file %s: %v", filename, err)
	}
	defer f.Close()

	props, err := Parse(f)
	if err != nil {
		return nil, recstore.NewErrorf(recstore.RetCStrategy,
			"parse properties file %s: %v", filename, err)
	}

	return &PropertiesFile{
		Properties: props,
		filename:   filename,
		mode:       mode,
	}, nil
}

// Filename returns the path of the backing file.
func (pf *PropertiesFile) Filename() string {
	return pf.filename
}

// Sync writes the properties to the underlying file, synchronizing the
// in-memory and on-disk versions. The file is replaced atomically via a
// temporary file and rename. Fails with ReadOnlyViolation if the object is
// read-only.
func (pf *PropertiesFile) Sync() error {
	if pf.mode == recstore.ReadOnly {
		return recstore.NewError(recstore.RetCReadOnly,
			"properties file is read-only")
	}

	dir := filepath.Dir(pf.filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(pf.filename)+".tmp")
	if err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"create temp properties file in %s: %v", dir, err)
	}
	tmpPath := tmp.Name()

	fail := func(err error, op string) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return recstore.NewErrorf(recstore.RetCStrategy,
			"%s properties file %s: %v", op, pf.filename, err)
	}

	if err := pf.Write(tmp); err != nil {
		return fail(err, "write")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		return fail(fmt.Errorf("close temp: %w", err), "write")
	}
	if err := os.Rename(tmpPath, pf.filename); err != nil {
		_ = os.Remove(tmpPath)
		return recstore.NewErrorf(recstore.RetCStrategy,
			"replace properties file %s: %v", pf.filename, err)
	}
	return nil
}

// ChangeName changes the name of the underlying file that stores the
// properties. The old file is renamed; no check is made that the new file is
// writeable at this time. Fails with ReadOnlyViolation if the object is
// read-only.
func (pf *PropertiesFile) ChangeName(filename string) error {
	if pf.mode == recstore.ReadOnly {
		return recstore.NewError(recstore.RetCReadOnly,
			"properties file is read-only")
	}
	if err := os.Rename(pf.filename, filename); err != nil {
		return recstore.NewErrorf(recstore.RetCStrategy,
			"rename properties file %s to %s: %v", pf.filename, filename, err)
	}
	pf.filename = filename
	return nil
}
