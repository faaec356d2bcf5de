package settings

import (
	"errors"
	"os"
	"path/filepath"
)

// Mode tags the authoritative configuration source.
type Mode string

const (
	// ModeWorkflowSettings means workflow_settings.yaml declares the version.
	ModeWorkflowSettings Mode = "workflow_settings"
	// ModePackageManifest means the legacy package.json declares the version.
	ModePackageManifest Mode = "package_manifest"
)

// Resolution is the outcome of settings resolution: exactly one authoritative
// source for the core-library version plus the project defaults.
type Resolution struct {
	Mode     Mode
	Version  string
	Settings *WorkflowSettings
}

// Resolve determines the effective configuration source for a project
// directory. Pure: it only inspects the file system, never installs or
// mutates anything.
//
// Resolution order:
//  1. workflow_settings.yaml with dataformCoreVersion set is authoritative;
//     any coexisting legacy artifact (package.json, package-lock.json,
//     node_modules) is a ConflictError.
//  2. Otherwise a package.json declaring the core library is authoritative,
//     but only when node_modules holds an installed copy.
//  3. Otherwise ErrMissingVersion.
func Resolve(projectDir string) (*Resolution, error) {
	ws, err := LoadWorkflowSettings(filepath.Join(projectDir, WorkflowSettingsFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if ws != nil && ws.DataformCoreVersion != "" {
		legacyArtifacts := []string{
			PackageManifestFileName,
			PackageLockFileName,
			InstalledDependenciesDirName,
		}
		for _, artifact := range legacyArtifacts {
			if pathExists(filepath.Join(projectDir, artifact)) {
				return nil, &ConflictError{Artifact: artifact}
			}
		}
		if err := ws.Validate(); err != nil {
			return nil, err
		}
		return &Resolution{
			Mode:     ModeWorkflowSettings,
			Version:  ws.DataformCoreVersion,
			Settings: ws,
		}, nil
	}

	manifest, err := LoadPackageManifest(filepath.Join(projectDir, PackageManifestFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if manifest != nil && manifest.CoreVersion() != "" {
		installed := filepath.Join(projectDir, InstalledDependenciesDirName, filepath.FromSlash(CoreLibraryName))
		if !pathExists(installed) {
			return nil, ErrDependencyNotInstalled
		}
		if ws == nil {
			ws = &WorkflowSettings{}
			ws.applyDefaults()
		}
		// Legacy mode still needs a database to qualify targets with.
		if err := ws.Validate(); err != nil {
			return nil, err
		}
		return &Resolution{
			Mode:     ModePackageManifest,
			Version:  manifest.CoreVersion(),
			Settings: ws,
		}, nil
	}

	return nil, ErrMissingVersion
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
