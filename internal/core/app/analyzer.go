package app

import (
	"argspec/internal/core/config"
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/engine/resolver"
	"argspec/internal/engine/spec"
	"argspec/internal/shared/observability"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const existingSpecFile = "argument_specs.yml"

// loadRoleInput reads everything the analysis needs from the role directory.
// Unreadable task files are passed on with ReadErr set so they are counted as
// skipped; missing or unreadable metadata is treated as empty.
func (a *App) loadRoleInput(root string, role ports.RoleRef) (spec.RoleInput, error) {
	files, err := a.taskFiles(root, role)
	if err != nil {
		return spec.RoleInput{}, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "list task files"),
			errors.CtxRole, role.Name)
	}

	in := spec.RoleInput{Name: role.Name}
	for _, path := range files {
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("failed to read task file", "role", role.Name, "path", path, "error", readErr)
		}
		in.TaskFiles = append(in.TaskFiles, spec.SourceFile{
			ID:      filepath.Base(path),
			Content: content,
			ReadErr: readErr,
		})
	}

	in.Meta = readOptional(role, filepath.Join(role.Dir, "meta", "main.yml"), filepath.Join(role.Dir, "meta", "main.yaml"))
	in.Defaults = readOptional(role, filepath.Join(role.Dir, "defaults", "main.yml"), filepath.Join(role.Dir, "defaults", "main.yaml"))
	in.Existing = readOptional(role, specPath(role))
	if galaxy := findGalaxyFile(role.Dir); galaxy != "" {
		in.Galaxy = readOptional(role, galaxy)
	}
	return in, nil
}

// findGalaxyFile looks for the collection's galaxy.yml in the few directories
// above a role (roles/<name> sits two levels below the collection root).
func findGalaxyFile(roleDir string) string {
	dir := filepath.Clean(roleDir)
	for i := 0; i < 3; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
		candidate := filepath.Join(dir, "galaxy.yml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// readOptional returns the first candidate that exists.
func readOptional(role ports.RoleRef, candidates ...string) []byte {
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
		if !os.IsNotExist(err) {
			slog.Warn("failed to read role file", "role", role.Name, "path", path, "error", err)
			return nil
		}
	}
	return nil
}

func specPath(role ports.RoleRef) string {
	return filepath.Join(role.Dir, "meta", existingSpecFile)
}

// analyzeRole runs the pipeline for one role and records its metrics.
func (a *App) analyzeRole(ctx context.Context, cfg *config.Config, root string, role ports.RoleRef) (*spec.RoleAnalysis, error) {
	_, span := observability.Tracer.Start(ctx, "app.analyzeRole", trace.WithAttributes(
		attribute.String("role", role.Name),
	))
	defer span.End()

	in, err := a.loadRoleInput(root, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load role")
		return nil, err
	}

	analysis := spec.AnalyzeRole(in, a.specOptions(cfg))
	recordDiagnostics(analysis.Diagnostics)

	span.SetAttributes(
		attribute.Int("entry_points", len(analysis.EntryPoints)),
		attribute.Int("options", analysis.OptionCount()),
		attribute.Int("files_skipped", analysis.Diagnostics.FilesSkipped),
	)
	return analysis, nil
}

func recordDiagnostics(d spec.Diagnostics) {
	observability.FilesScannedTotal.Add(float64(d.FilesScanned))
	observability.FilesSkippedTotal.Add(float64(d.FilesSkipped))
	observability.MalformedExpressionsTotal.Add(float64(d.MalformedExpressions))
	observability.VariablesExcludedTotal.WithLabelValues(string(resolver.ReasonBuiltin)).Add(float64(d.ExcludedBuiltin))
	observability.VariablesExcludedTotal.WithLabelValues(string(resolver.ReasonLoopLocal)).Add(float64(d.ExcludedLoopLocal))
	observability.VariablesExcludedTotal.WithLabelValues(string(resolver.ReasonRegistered)).Add(float64(d.ExcludedRegistered))
}
