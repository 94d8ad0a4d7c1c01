package version

// Version is replaced at build time via
// -ldflags "-X argspec/internal/shared/version.Version=<tag>".
var Version = "0.1.0"
