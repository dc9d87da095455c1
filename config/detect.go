package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known source layouts, tried in order by Detect.
var sourceCandidates = []string{
	"translations/translations.json",
	"translations/en.json",
	"public/locales/en",
	"locales/en",
}

// Detect builds a project file for a directory without .locsync.yaml.
// It looks for a known source layout and, for per-language locale
// directories, takes the target languages from the sibling directories.
// Returns nil if no source document is found.
func Detect(rootDir string) *File {
	for _, rel := range sourceCandidates {
		info, err := os.Stat(filepath.Join(rootDir, rel))
		if err != nil {
			continue
		}

		f := &File{Source: rel, root: rootDir}
		if info.IsDir() {
			f.Languages = detectLanguagesNested(filepath.Join(rootDir, filepath.Dir(rel)), "en")
		}
		f.setDefaults()
		return f
	}
	return nil
}

// detectLanguagesNested finds language codes from subdirectory names
// (locales/<lang>/), skipping the source language.
func detectLanguagesNested(dir, sourceLang string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || name == sourceLang || !isLangCode(name) {
			continue
		}
		langs = append(langs, name)
	}
	sort.Strings(langs)
	return langs
}

// isLangCode reports whether s looks like a language code (en, pt-BR, zh_Hans).
func isLangCode(s string) bool {
	s = strings.ReplaceAll(s, "_", "-")
	parts := strings.Split(s, "-")
	if len(parts[0]) < 2 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 8 {
			return false
		}
		for _, r := range p {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}
