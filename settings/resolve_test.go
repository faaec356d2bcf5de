package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const settingsWithVersion = `dataformCoreVersion: "3.0.0"
defaultProject: dataform-database
defaultLocation: us-central1
`

func TestResolve_WorkflowSettingsMode(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, settingsWithVersion)

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode != ModeWorkflowSettings {
		t.Errorf("expected workflow_settings mode, got %q", res.Mode)
	}
	if res.Version != "3.0.0" {
		t.Errorf("expected version 3.0.0, got %q", res.Version)
	}
	if res.Settings.DefaultProject != "dataform-database" {
		t.Errorf("unexpected defaultProject: %q", res.Settings.DefaultProject)
	}
}

func TestResolve_DatasetDefaults(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, settingsWithVersion)

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Settings.DefaultDataset != "dataform" {
		t.Errorf("expected defaultDataset=dataform, got %q", res.Settings.DefaultDataset)
	}
	if res.Settings.DefaultAssertionDataset != "dataform_assertions" {
		t.Errorf("expected defaultAssertionDataset=dataform_assertions, got %q",
			res.Settings.DefaultAssertionDataset)
	}
}

// Version-source exclusivity: each legacy artifact coexisting with a
// declared dataformCoreVersion is a conflict naming that artifact.
func TestResolve_ConflictWithLegacyArtifacts(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{PackageManifestFileName, func(t *testing.T, dir string) {
			writeProjectFile(t, dir, PackageManifestFileName, `{}`)
		}},
		{PackageLockFileName, func(t *testing.T, dir string) {
			writeProjectFile(t, dir, PackageLockFileName, `{}`)
		}},
		{InstalledDependenciesDirName, func(t *testing.T, dir string) {
			if err := os.MkdirAll(filepath.Join(dir, InstalledDependenciesDirName), 0o755); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProjectFile(t, dir, WorkflowSettingsFileName, settingsWithVersion)
			tc.setup(t, dir)

			_, err := Resolve(dir)
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected ConflictError, got %v", err)
			}
			if conflict.Artifact != tc.name {
				t.Errorf("expected artifact %q, got %q", tc.name, conflict.Artifact)
			}
			if !strings.Contains(err.Error(), "`"+tc.name+"` unexpected; remove it and try again") {
				t.Errorf("unexpected message: %q", err.Error())
			}
		})
	}
}

func TestResolve_MissingVersion(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, "defaultProject: some-db\n")

	_, err := Resolve(dir)
	if !errors.Is(err, ErrMissingVersion) {
		t.Fatalf("expected ErrMissingVersion, got %v", err)
	}
	// The message must name both valid declaration locations.
	if !strings.Contains(err.Error(), WorkflowSettingsFileName) {
		t.Errorf("error should mention %s: %v", WorkflowSettingsFileName, err)
	}
	if !strings.Contains(err.Error(), PackageManifestFileName) {
		t.Errorf("error should mention %s: %v", PackageManifestFileName, err)
	}
}

func TestResolve_EmptyProject(t *testing.T) {
	_, err := Resolve(t.TempDir())
	if !errors.Is(err, ErrMissingVersion) {
		t.Fatalf("expected ErrMissingVersion, got %v", err)
	}
}

func TestResolve_ManifestNotInstalled(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, PackageManifestFileName,
		`{"dependencies": {"@dataform/core": "^2.9.0"}}`)

	_, err := Resolve(dir)
	if !errors.Is(err, ErrDependencyNotInstalled) {
		t.Fatalf("expected ErrDependencyNotInstalled, got %v", err)
	}
	if !strings.Contains(err.Error(), "install") {
		t.Errorf("error should instruct the user to install: %v", err)
	}
}

func TestResolve_ManifestInstalled(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, "defaultProject: legacy-db\n")
	writeProjectFile(t, dir, PackageManifestFileName,
		`{"dependencies": {"@dataform/core": "2.9.0"}}`)
	installed := filepath.Join(dir, InstalledDependenciesDirName, "@dataform", "core")
	if err := os.MkdirAll(installed, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode != ModePackageManifest {
		t.Errorf("expected package_manifest mode, got %q", res.Mode)
	}
	if res.Version != "2.9.0" {
		t.Errorf("expected version 2.9.0, got %q", res.Version)
	}
	if res.Settings == nil {
		t.Fatal("expected non-nil settings with defaults")
	}
	if res.Settings.DefaultDataset != "dataform" {
		t.Errorf("expected default dataset fallback, got %q", res.Settings.DefaultDataset)
	}
}

// Legacy mode still needs a database: without it every compiled statement
// would qualify targets against an empty project.
func TestResolve_ManifestRequiresDatabase(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, PackageManifestFileName,
		`{"dependencies": {"@dataform/core": "2.9.0"}}`)
	installed := filepath.Join(dir, InstalledDependenciesDirName, "@dataform", "core")
	if err := os.MkdirAll(installed, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(dir)
	if err == nil {
		t.Fatal("manifest mode without a defaultProject should fail")
	}
	if !strings.Contains(err.Error(), "defaultProject") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

// A settings file without a version coexisting with an installed manifest is
// legal: the manifest wins on version, the settings provide defaults.
func TestResolve_ManifestWithSettingsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, "defaultProject: legacy-db\n")
	writeProjectFile(t, dir, PackageManifestFileName,
		`{"dependencies": {"@dataform/core": "2.8.1"}}`)
	installed := filepath.Join(dir, InstalledDependenciesDirName, "@dataform", "core")
	if err := os.MkdirAll(installed, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode != ModePackageManifest {
		t.Errorf("expected package_manifest mode, got %q", res.Mode)
	}
	if res.Settings.DefaultProject != "legacy-db" {
		t.Errorf("expected settings defaults carried through, got %q", res.Settings.DefaultProject)
	}
}

func TestResolve_MalformedSettingsIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName, "{{not yaml")

	_, err := Resolve(dir)
	if err == nil {
		t.Fatal("expected error for malformed settings")
	}
}

func TestLoadWorkflowSettings_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName,
		"defaultProject: db\nbogus_key: nope\n")

	_, err := LoadWorkflowSettings(filepath.Join(dir, WorkflowSettingsFileName))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key: %v", err)
	}
}

func TestLoadWorkflowSettings_Vars(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, WorkflowSettingsFileName,
		"defaultProject: db\nvars:\n  env: prod\n  testVar2: defaultValue\n")

	ws, err := LoadWorkflowSettings(filepath.Join(dir, WorkflowSettingsFileName))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ws.Vars["env"] != "prod" || ws.Vars["testVar2"] != "defaultValue" {
		t.Errorf("unexpected vars: %v", ws.Vars)
	}
}

func TestProjectConfig_Mapping(t *testing.T) {
	ws := &WorkflowSettings{
		DefaultProject:  "dataform-database",
		DefaultLocation: "us-central1",
		Vars:            map[string]string{"a": "1"},
	}
	ws.applyDefaults()

	cfg := ws.ProjectConfig()
	if cfg.Warehouse != "bigquery" {
		t.Errorf("expected warehouse bigquery, got %q", cfg.Warehouse)
	}
	if cfg.DefaultDatabase != "dataform-database" {
		t.Errorf("unexpected defaultDatabase: %q", cfg.DefaultDatabase)
	}
	if cfg.DefaultSchema != "dataform" || cfg.AssertionSchema != "dataform_assertions" {
		t.Errorf("unexpected schemas: %q / %q", cfg.DefaultSchema, cfg.AssertionSchema)
	}

	// The returned config owns its vars map.
	cfg.Vars["a"] = "mutated"
	if ws.Vars["a"] != "1" {
		t.Error("ProjectConfig should copy vars, not alias them")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ErrMissingVersion) || !IsFatal(ErrDependencyNotInstalled) {
		t.Error("sentinels should be fatal")
	}
	if !IsFatal(&ConflictError{Artifact: "package.json"}) {
		t.Error("conflict should be fatal")
	}
	if IsFatal(errors.New("other")) {
		t.Error("arbitrary errors are not resolution-fatal")
	}
}
