package app

import (
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/data/history"
	"argspec/internal/engine/spec"
	"argspec/internal/output"
	"argspec/internal/shared/observability"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// GenerateFromDefaults writes a spec whose only entry point lists the
// variables of a defaults file. It works on the single role the collection
// path names; the result goes to that role's meta/argument_specs.yml unless
// an output file is given.
func (a *App) GenerateFromDefaults(ctx context.Context, req ports.FromDefaultsRequest) (ports.GenerateResult, error) {
	_, span := observability.Tracer.Start(ctx, "app.GenerateFromDefaults")
	defer span.End()

	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg, paths, _ := a.snapshot()
	if !a.opts.SingleRole {
		return ports.GenerateResult{}, errors.New(errors.CodeValidationError, "generating from a defaults file needs single role mode")
	}

	path := req.File
	if !filepath.IsAbs(path) && a.opts.WorkDir != "" {
		path = filepath.Join(a.opts.WorkDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		switch {
		case os.IsNotExist(err):
			code = errors.CodeNotFound
		case os.IsPermission(err):
			code = errors.CodePermissionDenied
		}
		return ports.GenerateResult{}, errors.AddContext(errors.Wrap(err, code, "read defaults file"), errors.CtxPath, path)
	}

	role := ports.RoleRef{Name: filepath.Base(paths.CollectionRoot), Dir: paths.CollectionRoot}
	analysis, err := spec.AnalyzeDefaults(role.Name, req.EntryPoint, req.File, data)
	if err != nil {
		err = errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "parse defaults file"), errors.CtxPath, path)
		span.RecordError(err)
		return ports.GenerateResult{}, err
	}

	doc, err := output.EmitYAML(analysis)
	if err != nil {
		return ports.GenerateResult{}, errors.Wrap(err, errors.CodeInternal, "emit argument specs")
	}

	res := ports.GenerateResult{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		DryRun:         req.DryRun || cfg.Output.DryRun,
		RolesProcessed: 1,
	}
	outcome := ports.RoleOutcome{
		Role:       role.Name,
		Analysis:   analysis,
		YAML:       doc,
		OutputPath: req.OutputFile,
	}
	if outcome.OutputPath == "" {
		outcome.OutputPath = paths.OutputFile
	}
	if outcome.OutputPath == "" {
		outcome.OutputPath = specPath(role)
	}

	if !res.DryRun {
		written, err := writeIfChanged(outcome.OutputPath, doc)
		if err != nil {
			return res, errors.AddContext(err, errors.CtxRole, role.Name)
		}
		outcome.Written = written
		outcome.Unchanged = !written
		if written {
			res.Written = append(res.Written, outcome.OutputPath)
		}
	}
	res.Roles = append(res.Roles, outcome)
	observability.RolesProcessedTotal.WithLabelValues(history.StatusOK).Inc()
	a.setLastRun(res)
	return res, nil
}
