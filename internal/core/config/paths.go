package config

import (
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	CollectionRoot string
	RolesDir       string
	HistoryPath    string
	OutputFile     string
	TSVFile        string
	MarkdownFile   string
}

// ResolvePaths makes every configured path absolute. The collection path is
// taken relative to cwd, as are the output and report files. The roles
// directory and history database sit relative to the collection.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ResolvedPaths{}, err
		}
		cwd = wd
	}
	root := ResolveRelative(cwd, cfg.CollectionPath)

	resolved := ResolvedPaths{
		CollectionRoot: root,
		RolesDir:       ResolveRelative(root, cfg.Discovery.RolesDir),
		HistoryPath:    ResolveRelative(root, cfg.History.Path),
	}
	if cfg.Output.File != "" {
		resolved.OutputFile = ResolveRelative(cwd, cfg.Output.File)
	}
	if cfg.Output.TSV != "" {
		resolved.TSVFile = ResolveRelative(cwd, cfg.Output.TSV)
	}
	if cfg.Output.Markdown != "" {
		resolved.MarkdownFile = ResolveRelative(cwd, cfg.Output.Markdown)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
