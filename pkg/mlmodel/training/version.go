package training

import "runtime/debug"

const numericModule = "gonum.org/v1/gonum"

// LibraryVersion returns the version of the numerical library the regressors
// are fitted with, or "(devel)" when build information is unavailable
func LibraryVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	for _, dep := range info.Deps {
		if dep.Path != numericModule {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version != "" {
			return dep.Version
		}
	}
	return "(devel)"
}
