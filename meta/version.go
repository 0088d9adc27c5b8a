package meta

// Version is the testdeck release version. Overridden at build time with
// -ldflags "-X github.com/rickchristie/govner/testdeck/meta.Version=...".
var Version = "0.3.0"
