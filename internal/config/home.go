package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeDirName is the per-project directory holding config, logs and the cache
const HomeDirName = ".itemforge"

// HomeEnvVar overrides project root discovery when set
const HomeEnvVar = "ITEMFORGE_HOME"

// FindProjectRoot walks up from start looking for a directory containing
// .itemforge. It returns "" when none is found.
func FindProjectRoot(start string) string {
	current, err := filepath.Abs(start)
	if err != nil {
		return ""
	}

	for {
		info, err := os.Stat(filepath.Join(current, HomeDirName))
		if err == nil && info.IsDir() {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// ProjectRoot returns the directory that relative config paths resolve against
// Priority order:
//  1. Parent of ITEMFORGE_HOME (if set)
//  2. Nearest ancestor of the working directory containing .itemforge
//  3. The working directory
func ProjectRoot() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", HomeEnvVar, err)
		}
		return filepath.Dir(abs), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root := FindProjectRoot(cwd); root != "" {
		return root, nil
	}
	return cwd, nil
}

// ResolvePaths makes relative log, output and cache paths absolute against root
func (c *Config) ResolvePaths(root string) {
	resolve := func(p string) string {
		if p == "" || p == ":memory:" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	c.LogDir = resolve(c.LogDir)
	c.OutputDir = resolve(c.OutputDir)
	c.Cache.DBPath = resolve(c.Cache.DBPath)
}
