package version

// Version is the release version stamped into builds.
var Version = "0.3.0"
