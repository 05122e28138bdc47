// Package utils provides small helpers that don't warrant their own package.
package utils

// Build metadata, overridden with -ldflags at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
