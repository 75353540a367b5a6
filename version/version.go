package version //import "github.com/avosk/shelfmark/version"

// Version is the semver of the current build, overridable at link time.
var Version = "0.3.1"

func GetCurrentVersion() string {
	return Version
}
