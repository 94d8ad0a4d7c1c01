package spec

import (
	"argspec/internal/engine/infer"
	"argspec/internal/shared/util"
	"fmt"
	"sort"
)

type ValidationIssue struct {
	EntryPoint string
	Option     string
	Message    string
}

func (v ValidationIssue) String() string {
	if v.Option == "" {
		return fmt.Sprintf("%s: %s", v.EntryPoint, v.Message)
	}
	return fmt.Sprintf("%s.%s: %s", v.EntryPoint, v.Option, v.Message)
}

var knownTypes = func() map[string]bool {
	out := map[string]bool{"raw": true}
	for _, t := range infer.KnownTypes {
		out[string(t)] = true
	}
	return out
}()

// Validate checks an argument_specs document. Issues come back sorted by
// entry point and option; a decode failure is returned as an error.
func Validate(data []byte) ([]ValidationIssue, error) {
	entryPoints, err := ParseExisting(data)
	if err != nil {
		return nil, err
	}

	var issues []ValidationIssue
	for _, epName := range util.SortedStringKeys(entryPoints) {
		ep := entryPoints[epName]
		for _, optName := range util.SortedStringKeys(ep.Options) {
			opt := ep.Options[optName]
			add := func(format string, args ...any) {
				issues = append(issues, ValidationIssue{EntryPoint: epName, Option: optName, Message: fmt.Sprintf(format, args...)})
			}
			if opt.Type == "" {
				add("missing type")
			} else if !knownTypes[opt.Type] {
				add("unknown type %q", opt.Type)
			}
			if opt.Required && opt.HasDefault {
				add("required option must not declare a default")
			}
			if opt.Elements != "" && !knownTypes[opt.Elements] {
				add("unknown elements type %q", opt.Elements)
			}
			for _, choice := range opt.Choices {
				switch choice.(type) {
				case []any, map[string]any, map[any]any:
					add("choices must be scalar values")
				}
			}
		}

		for _, key := range util.SortedStringKeys(ep.Conditionals) {
			for _, item := range ep.Conditionals[key] {
				for _, name := range conditionalOptionNames(key, item) {
					if _, ok := ep.Options[name]; !ok {
						issues = append(issues, ValidationIssue{
							EntryPoint: epName,
							Message:    fmt.Sprintf("%s references unknown option %q", key, name),
						})
					}
				}
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].EntryPoint != issues[j].EntryPoint {
			return issues[i].EntryPoint < issues[j].EntryPoint
		}
		return issues[i].Option < issues[j].Option
	})
	return issues, nil
}

// conditionalOptionNames lists the option names a constraint entry names.
// required_if entries are [option, value, [options...]]; the others are
// plain lists of options.
func conditionalOptionNames(key string, item any) []string {
	list, ok := item.([]any)
	if !ok {
		return nil
	}
	var names []string
	if key == "required_if" {
		if len(list) > 0 {
			if s, ok := list[0].(string); ok {
				names = append(names, s)
			}
		}
		if len(list) > 2 {
			names = append(names, stringList(list[2])...)
		}
		return names
	}
	return stringList(list)
}
