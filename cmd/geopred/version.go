package main

import "runtime/debug"

// buildVersion reports the module version embedded at build time.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}

	return info.Main.Version + " (" + info.GoVersion + ")"
}
