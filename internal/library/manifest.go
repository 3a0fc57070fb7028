// Package library loads the seed document manifest and ingests its entries.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
)

// ErrInvalidManifest is returned when a manifest cannot be parsed or an entry is malformed.
var ErrInvalidManifest = errors.New("invalid manifest")

// Entry is one manifest line. Exactly one of Path, URL or Dir must be set.
type Entry struct {
	Subject string `yaml:"subject"`
	Path    string `yaml:"path,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	Name    string `yaml:"name,omitempty"`
}

// Manifest is the on-disk YAML document.
type Manifest struct {
	Documents []Entry `yaml:"documents"`
}

// Source is a validated manifest entry. Directory entries are expanded into
// one Source per PDF file.
type Source struct {
	Subject corpus.Subject
	Path    string // absolute PDF path
	URL     string
	Name    string
}

// Kind returns corpus.SourceTypeURL for web sources and corpus.SourceTypePDF otherwise.
func (s Source) Kind() corpus.SourceType {
	if s.URL != "" {
		return corpus.SourceTypeURL
	}
	return corpus.SourceTypePDF
}

// Label identifies the source in logs and reports.
func (s Source) Label() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// LoadManifest reads the manifest at path. Relative paths inside it resolve
// against the manifest's directory.
func LoadManifest(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	return ParseManifest(data, filepath.Dir(abs))
}

// ParseManifest validates manifest YAML and resolves its paths against baseDir.
func ParseManifest(data []byte, baseDir string) ([]Source, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	var sources []Source
	for i, e := range m.Documents {
		subject, err := corpus.ParseSubject(e.Subject)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidManifest, i+1, err)
		}

		set := 0
		for _, v := range []string{e.Path, e.URL, e.Dir} {
			if strings.TrimSpace(v) != "" {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("%w: entry %d: exactly one of path, url or dir is required", ErrInvalidManifest, i+1)
		}

		switch {
		case e.URL != "":
			u, err := extract.ValidateURL(e.URL)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidManifest, i+1, err)
			}
			sources = append(sources, Source{Subject: subject, URL: u.String(), Name: e.Name})
		case e.Path != "":
			sources = append(sources, Source{Subject: subject, Path: resolve(baseDir, e.Path), Name: e.Name})
		default:
			files, err := ScanDir(resolve(baseDir, e.Dir))
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidManifest, i+1, err)
			}
			for _, f := range files {
				sources = append(sources, Source{Subject: subject, Path: f})
			}
		}
	}
	return sources, nil
}

func resolve(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}
