package main

import "fmt"

// version holds the build version string. It is populated at build time via
// -ldflags "-X main.version=..." and defaults to "dev" for local builds.
var version = "dev"

// VersionCmd prints the build version.
type VersionCmd struct{}

func (v *VersionCmd) Execute(_ []string) error {
	fmt.Println(version)
	return nil
}
