package app

import (
	"argspec/internal/core/config"
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/data/history"
	"argspec/internal/engine/spec"
	"argspec/internal/output"
	"argspec/internal/shared/observability"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Generate analyzes the selected roles and writes their argument specs. A
// role that fails is logged and counted without stopping the others; the
// returned error covers only failures of the run as a whole.
func (a *App) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Generate")
	defer span.End()

	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg, paths, store := a.snapshot()
	req = mergeRequest(cfg, paths, req)

	roles, err := a.selectRoles(paths, req.Roles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select roles")
		return ports.GenerateResult{}, err
	}

	res := ports.GenerateResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    req.DryRun,
	}
	span.SetAttributes(attribute.String("run_id", res.RunID), attribute.Int("roles", len(roles)))

	combined := req.OutputFile != ""
	analyses := make([]*spec.RoleAnalysis, 0, len(roles))
	for _, role := range roles {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		outcome := a.generateRole(ctx, cfg, paths.CollectionRoot, role, req, combined)
		res.Roles = append(res.Roles, outcome)
		if outcome.Err != nil {
			res.RolesFailed++
			observability.RolesProcessedTotal.WithLabelValues(history.StatusFailed).Inc()
			slog.Error("role failed", "role", role.Name, "error", outcome.Err)
			continue
		}

		res.RolesProcessed++
		observability.RolesProcessedTotal.WithLabelValues(history.StatusOK).Inc()
		analyses = append(analyses, outcome.Analysis)
		if outcome.Written {
			res.Written = append(res.Written, outcome.OutputPath)
		}
		logRoleDiagnostics(outcome)
	}

	if combined && len(analyses) > 0 {
		doc, err := output.EmitYAML(analyses...)
		if err != nil {
			err = errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "combine argument specs"),
				errors.CtxPath, req.OutputFile)
			span.RecordError(err)
			return res, err
		}
		res.Combined = doc
		if !req.DryRun {
			written, err := writeIfChanged(req.OutputFile, doc)
			if err != nil {
				return res, err
			}
			if written {
				res.Written = append(res.Written, req.OutputFile)
			}
		}
	}

	if !req.DryRun {
		reports, err := writeReports(req, analyses)
		if err != nil {
			return res, err
		}
		res.Reports = reports
	}

	recordHistory(store, res)
	a.setLastRun(res)
	return res, nil
}

// mergeRequest fills unset request fields from the configuration.
func mergeRequest(cfg *config.Config, paths config.ResolvedPaths, req ports.GenerateRequest) ports.GenerateRequest {
	if req.OutputFile == "" {
		req.OutputFile = paths.OutputFile
	}
	if req.TSVFile == "" {
		req.TSVFile = paths.TSVFile
	}
	if req.MarkdownFile == "" {
		req.MarkdownFile = paths.MarkdownFile
	}
	req.DryRun = req.DryRun || cfg.Output.DryRun
	return req
}

func (a *App) generateRole(ctx context.Context, cfg *config.Config, root string, role ports.RoleRef, req ports.GenerateRequest, combined bool) (outcome ports.RoleOutcome) {
	start := time.Now()
	outcome.Role = role.Name
	defer func() {
		if r := recover(); r != nil {
			outcome.Analysis = nil
			outcome.Err = errors.AddContext(
				errors.New(errors.CodeInternal, fmt.Sprintf("panic: %v", r)),
				errors.CtxRole, role.Name)
		}
		outcome.Duration = time.Since(start)
		observability.RoleAnalysisDuration.Observe(outcome.Duration.Seconds())
	}()

	analysis, err := a.analyzeRole(ctx, cfg, root, role)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if combined {
		outcome.Analysis = analysis
		outcome.OutputPath = req.OutputFile
		return outcome
	}

	doc, err := output.EmitYAML(analysis)
	if err != nil {
		outcome.Err = errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "emit argument specs"),
			errors.CtxRole, role.Name)
		return outcome
	}
	outcome.Analysis = analysis
	outcome.YAML = doc
	outcome.OutputPath = specPath(role)
	if req.DryRun {
		return outcome
	}

	written, err := writeIfChanged(outcome.OutputPath, doc)
	if err != nil {
		outcome.Analysis = nil
		outcome.Err = errors.AddContext(err, errors.CtxRole, role.Name)
		return outcome
	}
	outcome.Written = written
	outcome.Unchanged = !written
	return outcome
}
