package settings

import (
	"encoding/json"
	"fmt"
	"os"
)

// CoreLibraryName is the legacy core dependency looked up in package.json.
const CoreLibraryName = "@dataform/core"

// PackageManifest mirrors the recognized keys of a legacy package.json.
type PackageManifest struct {
	Dependencies map[string]string `json:"dependencies"`
}

// LoadPackageManifest reads a package.json manifest.
// Returns os.ErrNotExist (wrapped) when the file is absent.
func LoadPackageManifest(path string) (*PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}

	var m PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return &m, nil
}

// CoreVersion returns the declared @dataform/core semver, or "" when the
// manifest does not declare the core library.
func (m *PackageManifest) CoreVersion() string {
	return m.Dependencies[CoreLibraryName]
}
