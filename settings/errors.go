// Sentinel errors for settings resolution failures.
//
// All of these are fatal and pre-compile: they abort before any graph is
// produced and surface a single human-readable message with a non-zero
// exit code. Use errors.Is/errors.As for typed assertions.
package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVersion indicates no resolvable core-version declaration:
	// neither workflow_settings.yaml nor package.json declares one.
	ErrMissingVersion = fmt.Errorf(
		"dataform core version not specified; declare dataformCoreVersion in %s or add %s as a dependency in %s",
		WorkflowSettingsFileName, CoreLibraryName, PackageManifestFileName)

	// ErrDependencyNotInstalled indicates the legacy manifest declares the
	// core library but no installed copy was found.
	ErrDependencyNotInstalled = fmt.Errorf(
		"could not find a recent installed version of %s; run the install step and try again",
		CoreLibraryName)
)

// ConflictError reports mutually exclusive version-declaration sources:
// workflow_settings.yaml declares dataformCoreVersion while a legacy
// package-manager artifact is also present.
type ConflictError struct {
	// Artifact is the offending legacy file or directory name.
	Artifact string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("`%s` unexpected; remove it and try again", e.Artifact)
}

// IsFatal reports whether err is one of the fatal resolution errors.
// Non-fatal compile problems are types.GraphError values, never errors.
func IsFatal(err error) bool {
	var conflict *ConflictError
	return errors.Is(err, ErrMissingVersion) ||
		errors.Is(err, ErrDependencyNotInstalled) ||
		errors.As(err, &conflict)
}
