// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build-time identification, overridden via -ldflags by the release build.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
