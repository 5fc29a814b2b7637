package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/itemforge/internal/fileutil"
	"github.com/harrison/itemforge/internal/models"
)

// Format represents the format of an item source file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) item file
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) item file
	FormatYAML
)

// ItemExtensions lists the file extensions recognised as item sources
var ItemExtensions = []string{".md", ".markdown", ".yaml", ".yml"}

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Parser is the interface that all item parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns a parsed Item
	Parse(r io.Reader) (*models.Item, error)
}

// DetectFormat detects the item format based on file extension
// Supported extensions:
//   - .md, .markdown -> FormatMarkdown
//   - .yaml, .yml -> FormatYAML
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// ParseFile detects the format of path, parses it and records the absolute
// source path on the returned item.
func ParseFile(path string) (*models.Item, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: %s)", path, strings.Join(ItemExtensions, ", "))
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	item, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	item.SourcePath = absPath

	return item, nil
}

// ParseDirectory parses every item file under dirname, in sorted path order.
// Parsing stops at the first file that fails.
func ParseDirectory(dirname string) ([]*models.Item, error) {
	files, err := FindItemFiles([]string{dirname})
	if err != nil {
		return nil, err
	}

	items := make([]*models.Item, 0, len(files))
	for _, path := range files {
		item, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// FindItemFiles expands a list of file and directory paths into a
// deduplicated list of absolute item file paths.
//
// Directories are scanned recursively (hidden directories are skipped) and
// contribute their item files in sorted order. Files named explicitly are
// kept in argument order and must carry a supported extension.
//
// Returns error if no paths are given, a path does not exist, an explicit
// file has an unsupported extension, or no item files are found.
func FindItemFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths provided")
	}

	files, err := fileutil.CollectFiles(paths, fileutil.ScanOptions{
		Extensions: ItemExtensions,
		Recursive:  true,
	})
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if DetectFormat(f) == FormatUnknown {
			return nil, fmt.Errorf("unknown file format: %s (supported: %s)", f, strings.Join(ItemExtensions, ", "))
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no item files found (supported: %s)", strings.Join(ItemExtensions, ", "))
	}
	return files, nil
}
