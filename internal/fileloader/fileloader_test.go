package fileloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
	path  string
}

func (d testDoc) Validate() error {
	if d.Name == `` {
		return errors.New(`name required`)
	}
	return nil
}

func (d testDoc) Filepath() string {
	return d.path
}

func TestLoadFlatFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, `doc.yaml`)
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: lewis\ncount: 3\n"), 0644))

	doc, err := LoadFlatFile[testDoc](yamlPath)
	require.NoError(t, err)
	require.Equal(t, `lewis`, doc.Name)
	require.Equal(t, 3, doc.Count)

	jsonPath := filepath.Join(dir, `doc.json`)
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name":"abigail","count":1}`), 0644))

	doc, err = LoadFlatFile[testDoc](jsonPath)
	require.NoError(t, err)
	require.Equal(t, `abigail`, doc.Name)
}

func TestLoadFlatFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFlatFile[testDoc](filepath.Join(dir, `missing.yaml`))
	require.Error(t, err)

	_, err = LoadFlatFile[testDoc](dir)
	require.Error(t, err)

	txtPath := filepath.Join(dir, `doc.txt`)
	require.NoError(t, os.WriteFile(txtPath, []byte("name: x"), 0644))
	_, err = LoadFlatFile[testDoc](txtPath)
	require.ErrorContains(t, err, `unsupported file type`)

	invalidPath := filepath.Join(dir, `invalid.yaml`)
	require.NoError(t, os.WriteFile(invalidPath, []byte("count: 2\n"), 0644))
	_, err = LoadFlatFile[testDoc](invalidPath)
	require.ErrorContains(t, err, `name required`)
}

func TestSaveFlatFileCareful(t *testing.T) {
	dir := t.TempDir()

	doc := testDoc{Name: `sam`, Count: 7, path: `nested/sam.yaml`}
	require.NoError(t, SaveFlatFile(dir, doc, SaveCareful))

	doc.Count = 8
	require.NoError(t, SaveFlatFile(dir, doc, SaveCareful))

	_, err := os.Stat(filepath.Join(dir, `nested`, `sam.yaml.bak`))
	require.True(t, os.IsNotExist(err))

	loaded, err := LoadFlatFile[testDoc](filepath.Join(dir, `nested`, `sam.yaml`))
	require.NoError(t, err)
	require.Equal(t, 8, loaded.Count)
}

func TestSaveFlatFileRejectsUnknownExtension(t *testing.T) {
	err := SaveFlatFile(t.TempDir(), testDoc{Name: `x`, path: `x.toml`})
	require.ErrorContains(t, err, `unsupported file type`)
}

func TestLoadFlatFileChecksFilepath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `doc.yaml`)
	require.NoError(t, os.WriteFile(path, []byte("name: pam\n"), 0644))

	_, err := LoadFlatFile[pathedDoc](path)
	require.ErrorContains(t, err, `expects to live at`)
}

type pathedDoc struct {
	Name string `yaml:"name"`
}

func (pathedDoc) Validate() error  { return nil }
func (pathedDoc) Filepath() string { return `elsewhere.yaml` }
