package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// InitialScan parses every supported file under the configured watch
// paths. File-level failures are recorded and logged; only walk errors
// abort the scan.
func (a *App) InitialScan(ctx context.Context) error {
	roots := uniqueScanRoots(a.Config.WatchPaths)

	files, err := a.ScanDirectories(roots, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, filePath := range files {
		filePath := filePath
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := a.ProcessFile(filePath); err != nil {
				slog.Warn("failed to process file", "path", filePath, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// ScanDirectories walks the given roots and returns the supported source
// files, honoring the exclude patterns against path base names.
func (a *App) ScanDirectories(paths, excludeDirs, excludeFiles []string) ([]string, error) {
	dirGlobs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range paths {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !a.Parser.IsSupportedPath(path) {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("scan directory %q: %w", root, walkErr)
		}
	}
	return files, nil
}

// ProcessFile parses one file and installs it in the project index. A
// parse failure keeps the previous version of the file, if any, and is
// remembered until the file parses again or disappears.
func (a *App) ProcessFile(path string) error {
	file, err := a.Parser.LoadFile(path)
	if err != nil {
		a.recordParseFailure(path, err)
		return err
	}
	a.Project.SetFile(file)
	a.clearParseFailure(path)
	return nil
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	roots := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		roots = append(roots, path)
	}
	sort.Strings(roots)
	return roots
}
