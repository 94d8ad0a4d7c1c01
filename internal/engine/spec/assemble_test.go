// # internal/engine/spec/assemble_test.go
package spec

import (
	"argspec/internal/engine/infer"
	"argspec/internal/engine/parser"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, files map[string]string) *RoleAnalysis {
	t.Helper()
	in := RoleInput{Name: "web"}
	for id, content := range files {
		in.TaskFiles = append(in.TaskFiles, SourceFile{ID: id, Content: []byte(content)})
	}
	return AnalyzeRole(in, Options{})
}

func mainOptions(t *testing.T, a *RoleAnalysis) map[string]*ArgumentSpec {
	t.Helper()
	require.NotEmpty(t, a.EntryPoints)
	require.Equal(t, "main", a.EntryPoints[0].Name)
	return a.EntryPoints[0].Options
}

func TestAnalyzeRole_RetryCountScenario(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml": "- debug:\n    msg: hi\n  when: \"{{ retry_count > 3 }}\"\n",
	})
	opts := mainOptions(t, a)
	require.Len(t, opts, 1)
	spec := opts["retry_count"]
	require.NotNil(t, spec)
	assert.Equal(t, infer.TypeInt, spec.Type)
	assert.True(t, spec.Required)
	assert.Nil(t, spec.Default)
	assert.NotEmpty(t, spec.Description)
}

func TestAnalyzeRole_DebugModeScenario(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml": "- debug:\n    msg: \"{{ debug_mode | default(false) }}\"\n",
	})
	spec := mainOptions(t, a)["debug_mode"]
	require.NotNil(t, spec)
	assert.Equal(t, infer.TypeBool, spec.Type)
	assert.False(t, spec.Required)
	require.NotNil(t, spec.Default)
	assert.Equal(t, false, spec.Default.Value)
}

func TestAnalyzeRole_RegisteredScenario(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml": `
- command: whoami
  register: result
- debug:
    msg: "{{ result.stdout }}"
`,
	})
	assert.Empty(t, mainOptions(t, a))
	assert.Equal(t, 1, a.Diagnostics.ExcludedRegistered)
}

func TestAnalyzeRole_MergedPathScenario(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml":    "- include_tasks: install.yml\n- debug:\n    msg: \"{{ config_path }}\"\n",
		"install.yml": "- copy:\n    src: a\n    dest: \"{{ config_path }}/app.conf\"\n",
	})
	require.Len(t, a.EntryPoints, 1)
	opts := mainOptions(t, a)
	require.Len(t, opts, 1)
	spec := opts["config_path"]
	assert.Equal(t, infer.TypePath, spec.Type)
	assert.True(t, spec.Required)
}

func TestAnalyzeRole_MalformedFileScenario(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml":   "- include_tasks: a.yml\n- include_tasks: broken.yml\n- debug:\n    msg: \"{{ first_var }}\"\n",
		"a.yml":      "- debug:\n    msg: \"{{ second_var }}\"\n",
		"broken.yml": "- name: x\n  when: \"{{ lost_var }}\n",
	})
	assert.Equal(t, 3, a.Diagnostics.FilesScanned)
	assert.Equal(t, 1, a.Diagnostics.FilesSkipped)
	assert.Equal(t, []string{"broken.yml"}, a.Diagnostics.SkippedFiles)

	opts := mainOptions(t, a)
	assert.Contains(t, opts, "first_var")
	assert.Contains(t, opts, "second_var")
	assert.NotContains(t, opts, "lost_var")
}

func TestAnalyzeRole_ReadErrorIsSkipped(t *testing.T) {
	in := RoleInput{Name: "web", TaskFiles: []SourceFile{
		{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ app_name }}\"\n")},
		{ID: "locked.yml", ReadErr: errors.New("permission denied")},
	}}
	a := AnalyzeRole(in, Options{})
	assert.Equal(t, 1, a.Diagnostics.FilesSkipped)
	assert.Contains(t, mainOptions(t, a), "app_name")
}

func TestAnalyzeRole_OrderIndependent(t *testing.T) {
	files := []SourceFile{
		{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ port | default(80) }} {{ user_name }}\"\n")},
		{ID: "backup.yml", Content: []byte("- debug:\n    msg: \"{{ port | default(8080) }} {{ backup_dir }}\"\n")},
		{ID: "zeta.yml", Content: []byte("- debug:\n    msg: \"{{ user_name | default('admin') }}\"\n")},
	}
	forward := AnalyzeRole(RoleInput{Name: "web", TaskFiles: files}, Options{})
	reversed := AnalyzeRole(RoleInput{Name: "web", TaskFiles: []SourceFile{files[2], files[0], files[1]}}, Options{})

	if diff := cmp.Diff(forward, reversed); diff != "" {
		t.Fatalf("analysis depends on scan order (-forward +reversed):\n%s", diff)
	}
	assert.Equal(t, []string{"main", "backup", "zeta"}, entryPointNames(forward))
}

func TestAnalyzeRole_Idempotent(t *testing.T) {
	files := map[string]string{
		"main.yml": "- debug:\n    msg: \"{{ packages | default([]) }}\"\n  when: app_mode in ['a', 'b']\n",
	}
	if diff := cmp.Diff(analyze(t, files), analyze(t, files)); diff != "" {
		t.Fatalf("second run differs:\n%s", diff)
	}
}

func TestAnalyzeRole_FilterCompleteness(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml": `
- debug:
    msg: "{{ item }} {{ ansible_hostname }} {{ hostvars }} {{ out }} {{ pkg }} {{ wanted }}"
  loop: "{{ things }}"
  loop_control:
    loop_var: pkg
- set_fact:
    out: 1
`,
	})
	opts := mainOptions(t, a)
	for _, name := range []string{"item", "ansible_hostname", "hostvars", "out", "pkg"} {
		assert.NotContains(t, opts, name)
	}
	assert.Contains(t, opts, "wanted")
	assert.Contains(t, opts, "things")
}

func TestAnalyzeRole_FilterCompletenessAcrossIncludes(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml": `
- command: /bin/true
  register: result
- include_tasks: install.yml
  loop: "{{ packages_to_install }}"
  loop_control:
    loop_var: pkg
- include_tasks: check.yml
`,
		"install.yml": "- package:\n    name: \"{{ pkg }}\"\n",
		"check.yml":   "- debug:\n    msg: \"{{ result.stdout }} {{ check_level }}\"\n",
	})
	require.Equal(t, []string{"main"}, entryPointNames(a))

	opts := mainOptions(t, a)
	assert.NotContains(t, opts, "pkg")
	assert.NotContains(t, opts, "result")
	assert.Contains(t, opts, "packages_to_install")
	assert.Contains(t, opts, "check_level")
	assert.GreaterOrEqual(t, a.Diagnostics.ExcludedRegistered, 2)
	assert.GreaterOrEqual(t, a.Diagnostics.ExcludedLoopLocal, 1)
}

func TestAnalyzeRole_DefaultsAndMetadata(t *testing.T) {
	in := RoleInput{
		Name: "web",
		TaskFiles: []SourceFile{
			{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ http_port | default(8080) }}\"\n")},
			{ID: "upgrade.yml", Content: []byte("- debug:\n    msg: \"{{ target_version }}\"\n")},
		},
		Defaults: []byte("http_port: 80\nnginx_user: www-data\nextra: ~\n"),
		Meta:     []byte("galaxy_info:\n  author: Ops Team\n  description: |\n    Web server role\n    with details\n"),
	}
	a := AnalyzeRole(in, Options{})
	require.Equal(t, []string{"main", "upgrade"}, entryPointNames(a))

	main := a.EntryPoints[0]
	assert.Equal(t, "Web server role", main.ShortDescription)
	assert.Equal(t, []string{"Ops Team"}, main.Author)
	assert.Equal(t, &parser.Literal{Kind: parser.LiteralInt, Value: int64(80)}, main.Options["http_port"].Default)
	assert.False(t, main.Options["extra"].Required)
	assert.Equal(t, parser.LiteralNull, main.Options["extra"].Default.Kind)

	upgrade := a.EntryPoints[1]
	assert.Contains(t, upgrade.Options, "nginx_user")
	assert.True(t, upgrade.Options["target_version"].Required)
	assert.NotSame(t, main.Options["nginx_user"], upgrade.Options["nginx_user"])
}

func TestAnalyzeRole_GeneratedHeaders(t *testing.T) {
	a := analyze(t, map[string]string{
		"main.yml":  "- include_tasks: setup.yml\n",
		"setup.yml": "- debug: msg=hi\n",
		"extra.yml": "- debug: msg=hi\n",
	})
	require.Equal(t, []string{"main", "extra"}, entryPointNames(a))
	assert.Equal(t, "Auto-generated specs for web role - main entry point", a.EntryPoints[0].ShortDescription)
	assert.Equal(t, []string{
		"Automatically generated argument specification for the web role.",
		"Entry point: main",
		"Includes task files: setup",
	}, a.EntryPoints[0].Description)
	assert.Equal(t, "Standalone task file: extra", a.EntryPoints[1].ShortDescription)
}

func TestAnalyzeRole_EmptyEntryPoint(t *testing.T) {
	a := AnalyzeRole(RoleInput{Name: "empty", EntryPoints: []string{"main", "ghost"}}, Options{})
	require.Len(t, a.EntryPoints, 2)
	assert.Empty(t, a.EntryPoints[0].Options)
	assert.Empty(t, a.EntryPoints[1].Options)
}

func TestAnalyzeRole_PreservesExistingSpec(t *testing.T) {
	in := RoleInput{
		Name: "web",
		TaskFiles: []SourceFile{
			{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ app_name }} {{ app_port }}\"\n")},
		},
		Existing: []byte(`---
argument_specs:
  main:
    short_description: Hand written
    author: [Alice]
    mutually_exclusive:
      - [app_name, app_port]
    options:
      app_name:
        type: str
        description: The public name of the app
`),
	}
	a := AnalyzeRole(in, Options{})
	main := a.EntryPoints[0]
	assert.Equal(t, "Hand written", main.ShortDescription)
	assert.Equal(t, []string{"Alice"}, main.Author)
	assert.Equal(t, "The public name of the app", main.Options["app_name"].Description)
	assert.Equal(t, "The app port value", main.Options["app_port"].Description)
	assert.Equal(t, []any{[]any{"app_name", "app_port"}}, main.Conditionals["mutually_exclusive"])
}

func TestAnalyzeRole_ConfiguredExclusions(t *testing.T) {
	in := RoleInput{Name: "web", TaskFiles: []SourceFile{
		{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ corp_secret }} {{ site }} {{ keep_me }}\"\n")},
	}}
	a := AnalyzeRole(in, Options{ExcludeVariables: []string{"site"}, ExcludePrefixes: []string{"corp_"}})
	assert.Equal(t, []string{"keep_me"}, a.EntryPoints[0].OptionNames())
	assert.Equal(t, 2, a.Diagnostics.ExcludedBuiltin)
}

func entryPointNames(a *RoleAnalysis) []string {
	var out []string
	for _, ep := range a.EntryPoints {
		out = append(out, ep.Name)
	}
	return out
}

func TestAnalyzeRole_VersionAdded(t *testing.T) {
	in := RoleInput{
		Name: "web",
		TaskFiles: []SourceFile{
			{ID: "main.yml", Content: []byte("- debug:\n    msg: \"{{ old_opt }} {{ declared_opt }} {{ new_opt }}\"\n")},
		},
		Galaxy: []byte("namespace: acme\nname: infra\nversion: 1.2.0\n"),
		Meta:   []byte("galaxy_info:\n  role_version: 0.9.0\n"),
		Existing: []byte(`argument_specs:
  main:
    options:
      old_opt:
        type: str
        version_added: 1.0.0
      declared_opt:
        type: str
`),
	}
	opts := mainOptions(t, AnalyzeRole(in, Options{}))
	assert.Equal(t, "1.0.0", opts["old_opt"].VersionAdded)
	assert.Empty(t, opts["declared_opt"].VersionAdded)
	assert.Equal(t, "1.2.0", opts["new_opt"].VersionAdded)

	in.Galaxy = nil
	in.Existing = nil
	opts = mainOptions(t, AnalyzeRole(in, Options{}))
	assert.Equal(t, "0.9.0", opts["new_opt"].VersionAdded)

	in.Meta = []byte("galaxy_info:\n  role_version: 2.1\n")
	opts = mainOptions(t, AnalyzeRole(in, Options{}))
	assert.Equal(t, "2.1", opts["new_opt"].VersionAdded)

	in.Meta = nil
	opts = mainOptions(t, AnalyzeRole(in, Options{}))
	assert.Empty(t, opts["new_opt"].VersionAdded)
}

func TestAnalyzeDefaults(t *testing.T) {
	a, err := AnalyzeDefaults("web", "", "defaults/main.yml", []byte("web_port: 8080\nweb_users: []\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, entryPointNames(a))

	ep := a.EntryPoints[0]
	assert.Equal(t, "Auto-generated from defaults/main.yml", ep.ShortDescription)
	assert.Equal(t, []string{"web_port", "web_users"}, ep.OptionNames())
	assert.False(t, ep.Options["web_port"].Required)
	assert.Equal(t, infer.TypeInt, ep.Options["web_port"].Type)
	assert.Equal(t, infer.TypeList, ep.Options["web_users"].Type)

	a, err = AnalyzeDefaults("web", "install", "empty.yml", nil)
	require.NoError(t, err)
	assert.Equal(t, "install", a.EntryPoints[0].Name)
	assert.Empty(t, a.EntryPoints[0].Options)

	_, err = AnalyzeDefaults("web", "main", "list.yml", []byte("- a\n- b\n"))
	assert.Error(t, err)
}
