package spec

import (
	"fmt"
	"log/slog"
	"strings"
)

// AnalyzeDefaults builds a single entry point whose options are exactly the
// variables of a defaults file. Every option has a default, so none is
// required. An empty file yields an entry point without options.
func AnalyzeDefaults(role, entryPoint, source string, data []byte) (*RoleAnalysis, error) {
	if strings.TrimSpace(entryPoint) == "" {
		entryPoint = mainEntryPoint
	}

	defaults, err := ParseDefaults(data)
	if err != nil {
		return nil, fmt.Errorf("defaults file %s must hold a mapping: %w", source, err)
	}

	ep := EntryPointSpec{
		Name:             entryPoint,
		ShortDescription: fmt.Sprintf("Auto-generated from %s", source),
		Options:          Aggregate(nil, nil, defaults),
	}
	slog.Debug("defaults analyzed", "role", role, "entry_point", entryPoint, "options", len(ep.Options))
	return &RoleAnalysis{Role: role, EntryPoints: []EntryPointSpec{ep}}, nil
}
