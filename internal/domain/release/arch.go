package release

import "runtime"

// DebianArch maps a GOARCH value to the Debian architecture name.
// Unknown values are returned unchanged.
func DebianArch(goarch string) string {
	switch goarch {
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "ppc64le":
		return "ppc64el"
	case "mips64le":
		return "mips64el"
	case "loong64":
		return "loong64"
	default:
		return goarch
	}
}

// CurrentArchitecture is the Debian name of the running architecture.
func CurrentArchitecture() string {
	return DebianArch(runtime.GOARCH)
}
