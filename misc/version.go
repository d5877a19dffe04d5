// Package misc keeps build time program identity.
package misc

// Set with -ldflags "-X github.com/peteklapka/wagipedia/misc.version=..." at build time.
var (
	appName = "wagi"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
