package version

import "runtime/debug"

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/luddite478/fortuned-sub008/version.Version=$(git describe --dirty)"

var Version string

var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	modified := false
	revision := ""
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.modified":
			modified = setting.Value == "true"
		case "vcs.revision":
			revision = setting.Value
		}
	}
	if len(revision) < 7 {
		return ""
	}
	if modified {
		return revision[:7] + "-dirty"
	}
	return revision[:7]
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()
