package analyzer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArtifactFile is one report file found in an analyzer output directory.
type ArtifactFile struct {
	Name    string
	Path    string
	ModTime time.Time
}

// ListFilesByExtension returns the files directly inside dir whose name ends
// with ext (case-insensitive), newest first. A missing or empty dir yields an
// empty list; the locator never fails.
func ListFilesByExtension(dir, ext string) []ArtifactFile {
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	ext = strings.ToLower(ext)
	var files []ArtifactFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ArtifactFile{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files
}

// NewestAddedFile returns the most recently modified file in after that is
// absent from before, or whose modification time moved strictly forward.
// It is the fallback for associating a finished run with the report it wrote
// when the process output does not name the file.
func NewestAddedFile(before, after []ArtifactFile) *ArtifactFile {
	seen := make(map[string]time.Time, len(before))
	for _, f := range before {
		seen[f.Name] = f.ModTime
	}

	var newest *ArtifactFile
	for i := range after {
		f := &after[i]
		prev, ok := seen[f.Name]
		if ok && !f.ModTime.After(prev) {
			continue
		}
		if newest == nil || f.ModTime.After(newest.ModTime) {
			newest = f
		}
	}

	return newest
}
