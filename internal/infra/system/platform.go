package system

import (
	"runtime"
	"strings"
)

// OSType returns the platform name in the form reported by uname(3) on the
// common targets, e.g. "Linux", "Darwin" or "Windows_NT".
func OSType() string {
	return osTypeFor(runtime.GOOS)
}

func osTypeFor(goos string) string {
	switch goos {
	case "linux", "android":
		return "Linux"
	case "darwin", "ios":
		return "Darwin"
	case "windows":
		return "Windows_NT"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "aix":
		return "AIX"
	case "solaris", "illumos":
		return "SunOS"
	case "":
		return ""
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}
