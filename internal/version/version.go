// Package version carries build metadata set with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "none"
)

func String() string {
	if Commit == "none" || Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
