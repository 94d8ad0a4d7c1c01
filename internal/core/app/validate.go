package app

import (
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/engine/spec"
	"context"
	"os"
)

// Validate checks the existing meta/argument_specs.yml of each selected
// role. Roles without the file are reported as missing.
func (a *App) Validate(ctx context.Context, roles []string) ([]ports.ValidateResult, error) {
	_, paths, _ := a.snapshot()
	selected, err := a.selectRoles(paths, roles)
	if err != nil {
		return nil, err
	}

	results := make([]ports.ValidateResult, 0, len(selected))
	for _, role := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := ports.ValidateResult{Role: role.Name, Path: specPath(role)}
		data, err := os.ReadFile(res.Path)
		switch {
		case os.IsNotExist(err):
			res.Missing = true
		case err != nil:
			res.Err = errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read argument specs"), errors.CtxPath, res.Path)
		default:
			issues, vErr := spec.Validate(data)
			if vErr != nil {
				res.Err = errors.AddContext(errors.Wrap(vErr, errors.CodeValidationError, "parse argument specs"), errors.CtxPath, res.Path)
			}
			res.Issues = issues
		}
		results = append(results, res)
	}
	return results, nil
}
