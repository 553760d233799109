package messages

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Bundle groups message catalogs per locale and answers lookups with BCP 47
// matching, so a request for "fr-CA" lands on an "fr" catalog when no exact
// match exists.
type Bundle struct {
	tags     []language.Tag
	catalogs map[language.Tag]Catalog
	matcher  language.Matcher
}

// NewBundle creates an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{catalogs: make(map[language.Tag]Catalog)}
}

// Add registers a catalog under a locale. Catalogs added for the same locale
// merge, later entries winning. Entries are sanitized on the way in.
func (b *Bundle) Add(locale string, catalog Catalog) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("messages: parse locale %q: %w", locale, err)
	}

	clean := catalog.Sanitized()
	if existing, ok := b.catalogs[tag]; ok {
		b.catalogs[tag] = existing.Merge(clean)
	} else {
		b.catalogs[tag] = clean
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return nil
}

// Match returns the catalog best matching the requested locale. The bool is
// false when the bundle is empty or the locale string cannot be parsed.
func (b *Bundle) Match(locale string) (Catalog, bool) {
	if b == nil || len(b.tags) == 0 {
		return nil, false
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return nil, false
	}
	_, index, confidence := b.matcher.Match(requested)
	if confidence == language.No {
		return nil, false
	}
	return b.catalogs[b.tags[index]], true
}

// Empty reports whether the bundle holds any catalog.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.tags) == 0
}

type catalogFile struct {
	Locale   string            `json:"locale" yaml:"locale"`
	Messages map[string]string `json:"messages" yaml:"messages"`
}

// LoadFS walks the filesystem and parses JSON/YAML catalog files into a
// bundle. Each file declares a locale plus its messages; files whose locale
// is omitted fall back to the file's base name.
func LoadFS(fsys fs.FS) (*Bundle, error) {
	bundle := NewBundle()
	if fsys == nil {
		return bundle, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("messages: read %s: %w", path, err)
		}

		doc, err := parseCatalog(data, path)
		if err != nil {
			return err
		}

		locale := strings.TrimSpace(doc.Locale)
		if locale == "" {
			base := filepath.Base(path)
			locale = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if err := bundle.Add(locale, Catalog(doc.Messages)); err != nil {
			return fmt.Errorf("messages: file %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func parseCatalog(data []byte, source string) (catalogFile, error) {
	var doc catalogFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return catalogFile{}, fmt.Errorf("messages: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return catalogFile{}, fmt.Errorf("messages: parse %s: invalid JSON or YAML", source)
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
