// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build details, set with -ldflags "-X" at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies this build in outbound HTTP requests.
func UserAgent() string {
	return "studybot/" + Version
}
