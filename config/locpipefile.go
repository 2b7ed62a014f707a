package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project file name.
const FileName = ".locpipe.yaml"

// File is the .locpipe.yaml schema. When the file exists in the project
// root it supplies defaults for anything not given on the command line;
// flags always win.
type File struct {
	// Source is the source-language JSON file, relative to the file's
	// directory or absolute.
	Source string `yaml:"source,omitempty"`
	// OutDir receives the per-language output files.
	OutDir string `yaml:"out_dir,omitempty"`
	// CacheDir overrides where cache snapshots are read from.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Overrides points at a manual-override table.
	Overrides string `yaml:"overrides,omitempty"`
	// Languages is the target language list.
	Languages []string `yaml:"languages,omitempty"`
	// SourceLang overrides the language sniffed from the filename.
	SourceLang string `yaml:"source_lang,omitempty"`
	// ChunkSize caps strings per provider request.
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// Proxy is an HTTP proxy URL for provider calls.
	Proxy string `yaml:"proxy,omitempty"`
}

// LoadFile loads .locpipe.yaml from the given directory. Returns nil
// without error when the file doesn't exist.
func LoadFile(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.ChunkSize < 0 {
		return nil, fmt.Errorf("%s: chunk_size must be positive", path)
	}

	return &f, nil
}
