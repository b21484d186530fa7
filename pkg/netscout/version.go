// Package netscout version information.
package netscout

const (
	// Version is the semantic version of the library.
	Version = "0.3.0"

	VersionMajor = 0
	VersionMinor = 3
	VersionPatch = 0
)

// VersionInfo returns the full version string with library name.
func VersionInfo() string {
	return "go-netscout v" + Version
}
