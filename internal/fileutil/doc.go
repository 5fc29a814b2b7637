// Package fileutil finds item source files on disk.
//
// ScanDirectory walks one directory with an extension filter, skipping hidden
// entries and excluded directory names, and returns sorted absolute paths.
// CollectFiles expands command-line arguments that mix files and directories:
//
//	files, err := fileutil.CollectFiles(args, fileutil.ScanOptions{
//	    Extensions: []string{".md", ".yaml", ".yml"},
//	    Recursive:  true,
//	})
//
// Explicit files keep argument order and duplicates are dropped.
package fileutil
