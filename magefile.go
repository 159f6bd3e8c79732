//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - build the binary
var Default = Build

// Build builds the vd binary into bin/.
func Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", "bin/vd", "./cmd/vd")
}

// Test runs the unit and integration tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the tests with the race detector.
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// QA runs formatting, vet and the tests.
func QA() error {
	mg.Deps(Fmt, Vet)
	return Test()
}

// Fmt checks formatting.
func Fmt() error {
	out, err := sh.Output("gofmt", "-l", "cmd", "pkg", "integration_test.go")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("gofmt needed on:\n%s", out)
	}
	return nil
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs vd into GOBIN.
func Install() error {
	return sh.RunV("go", "install", "./cmd/vd")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm("bin")
}
