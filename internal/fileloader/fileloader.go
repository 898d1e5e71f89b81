// Package fileloader reads and writes the single-document yaml/json files
// used for config and sandbox worlds.
package fileloader

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// LoadableSimple is a document that lives in one file.
type LoadableSimple interface {
	Validate() error
	// Filepath is relative to whatever base directory the document is saved under.
	Filepath() string
}

type SaveOption uint8

const (
	// SaveCareful writes to a temp file and renames it over the target,
	// keeping a .bak copy until the rename succeeds.
	SaveCareful SaveOption = iota
)

type format struct {
	name      string
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var formats = map[string]format{
	`.yaml`: {`yaml`, yaml.Marshal, yaml.Unmarshal},
	`.yml`:  {`yaml`, yaml.Marshal, yaml.Unmarshal},
	`.json`: {`json`, func(v any) ([]byte, error) { return json.MarshalIndent(v, ``, `  `) }, json.Unmarshal},
}

func formatFor(path string) (format, error) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return format{}, errors.Errorf(`unsupported file type %q (want .yaml, .yml or .json)`, path)
	}
	return f, nil
}

// LoadFlatFile decodes the file at path into a T and validates it. The path
// must end in whatever T.Filepath() reports after decoding, so a later save
// lands on the same file.
func LoadFlatFile[T LoadableSimple](path string) (T, error) {
	var doc T

	path = filepath.FromSlash(path)

	f, err := formatFor(path)
	if err != nil {
		return doc, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, errors.Wrapf(err, `reading %s`, path)
	}

	if err = f.unmarshal(raw, &doc); err != nil {
		return doc, errors.Wrapf(err, `decoding %s as %s`, path, f.name)
	}

	if want := filepath.FromSlash(doc.Filepath()); !strings.HasSuffix(path, want) {
		return doc, errors.Errorf(`%T loaded from %q expects to live at %q`, doc, path, want)
	}

	if err = doc.Validate(); err != nil {
		return doc, errors.Wrapf(err, `validating %s`, path)
	}

	return doc, nil
}

// SaveFlatFile encodes doc to basePath/doc.Filepath(), creating parent
// directories.
func SaveFlatFile[T LoadableSimple](basePath string, doc T, opts ...SaveOption) error {
	target := filepath.Join(filepath.FromSlash(basePath), filepath.FromSlash(doc.Filepath()))

	f, err := formatFor(target)
	if err != nil {
		return err
	}

	raw, err := f.marshal(&doc)
	if err != nil {
		return errors.Wrapf(err, `encoding %T as %s`, doc, f.name)
	}

	if err = os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, `creating directory for %s`, target)
	}

	careful := false
	for _, o := range opts {
		careful = careful || o == SaveCareful
	}

	if !careful {
		return errors.Wrapf(os.WriteFile(target, raw, 0644), `writing %s`, target)
	}
	return replaceFile(target, raw)
}

// replaceFile swaps raw in for target via a temp file. If the rename fails
// the previous contents are put back from the .bak copy.
func replaceFile(target string, raw []byte) error {
	backup, temp := target+`.bak`, target+`.tmp`

	_, statErr := os.Stat(target)
	hadOriginal := statErr == nil
	if hadOriginal {
		if err := CopyFileContents(target, backup); err != nil {
			return errors.Wrapf(err, `backing up %s`, target)
		}
	}

	if err := os.WriteFile(temp, raw, 0644); err != nil {
		return errors.Wrapf(err, `writing %s`, temp)
	}

	if err := os.Rename(temp, target); err != nil {
		if hadOriginal {
			os.Rename(backup, target)
		}
		os.Remove(temp)
		return errors.Wrapf(err, `replacing %s`, target)
	}

	if hadOriginal {
		os.Remove(backup)
	}
	return nil
}

// CopyFileContents copies src over dst, creating or truncating dst.
func CopyFileContents(src, dst string) (err error) {
	from, err := os.Open(filepath.FromSlash(src))
	if err != nil {
		return err
	}
	defer from.Close()

	to, err := os.Create(filepath.FromSlash(dst))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := to.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(to, from); err != nil {
		return err
	}
	return to.Sync()
}
