package version

// Version is the semantic version of this build. Release tooling overrides
// it with -ldflags "-X ...version.Version=...".
var Version = "0.1.0"
