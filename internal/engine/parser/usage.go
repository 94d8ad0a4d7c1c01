package parser

import "fmt"

// moduleParameterContexts describes what well-known module parameters hold.
// A reference harvested from one of these parameters carries the phrase as
// its usage hint.
var moduleParameterContexts = map[string]map[string]string{
	"copy": {
		"src":     "source file path",
		"dest":    "destination file path",
		"content": "file content",
	},
	"template": {
		"src":  "template file path",
		"dest": "destination file path",
	},
	"file": {
		"path":  "file or directory path",
		"state": "file state",
		"mode":  "file permissions",
	},
	"lineinfile": {
		"path":   "target file path",
		"line":   "line content",
		"regexp": "search pattern",
	},
	"package": {"name": "package name", "state": "package state"},
	"yum":     {"name": "package name", "state": "package state"},
	"apt":     {"name": "package name", "state": "package state"},
	"pip":     {"name": "Python package name", "state": "package state"},
	"service": {
		"name":    "service name",
		"state":   "service state",
		"enabled": "service startup",
	},
	"systemd": {
		"name":    "systemd service name",
		"state":   "service state",
		"enabled": "service startup",
	},
	"user": {
		"name":  "username",
		"state": "user account state",
		"home":  "home directory",
	},
	"group":   {"name": "group name", "state": "group state"},
	"command": {"cmd": "command to execute", "chdir": "working directory"},
	"shell":   {"cmd": "shell command", "chdir": "working directory"},
	"script":  {"cmd": "script path", "chdir": "working directory"},
	"uri": {
		"url":     "target URL",
		"method":  "HTTP method",
		"headers": "HTTP headers",
	},
	"get_url":   {"url": "source URL", "dest": "destination path"},
	"unarchive": {"src": "archive file path", "dest": "extraction path"},
	"archive":   {"path": "source path", "dest": "archive destination"},
}

// usageHint returns the hint for a module parameter, or "" when the pair is
// not known.
func usageHint(module, param string) string {
	module = shortModuleName(module)
	params, ok := moduleParameterContexts[module]
	if !ok {
		return ""
	}
	context, ok := params[param]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (used in %s)", context, module)
}

func isKnownModule(key string) bool {
	_, ok := moduleParameterContexts[shortModuleName(key)]
	return ok
}
