package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures ScanDirectory
type ScanOptions struct {
	// Extensions limits results to these extensions (".md" or "md",
	// case-insensitive). Empty matches every file.
	Extensions []string
	// Recursive descends into subdirectories
	Recursive bool
	// ExcludeDirs names directories that are never entered, at any depth
	ExcludeDirs []string
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files holds matched files as sorted absolute paths
	Files []string
	// Errors holds entries that could not be read; the walk continues past them
	Errors []error
}

// extensionSet normalizes extensions to lower-case with a leading dot
func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ScanDirectory lists the files under dir that match opts. Hidden files and
// directories are skipped.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	exts := extensionSet(opts.Extensions)
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excluded[name] = true
	}

	result := &ScanResult{Files: []string{}}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if !opts.Recursive || isHidden(name) || excluded[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(name) {
			return nil
		}
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		result.Files = append(result.Files, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", walkErr)
	}

	sort.Strings(result.Files)
	return result, nil
}

// CollectFiles expands a mix of file and directory paths into a deduplicated
// list of absolute file paths. Directories are scanned with opts and
// contribute their files in sorted order; explicit files are kept in argument
// order regardless of opts. A path that does not exist, or a directory entry
// that cannot be read, is an error.
func CollectFiles(paths []string, opts ScanOptions) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
		}

		info, err := os.Stat(absPath)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path %q does not exist", absPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to access path %q: %w", absPath, err)
		}

		if !info.IsDir() {
			add(absPath)
			continue
		}

		result, err := ScanDirectory(absPath, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %q: %w", absPath, err)
		}
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("failed to scan directory %q: %w", absPath, errors.Join(result.Errors...))
		}
		for _, f := range result.Files {
			add(f)
		}
	}

	return files, nil
}
