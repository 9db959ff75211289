//go:build mage

// Package main provides build targets for deskboard using Mage.
//
// Usage:
//
//	mage build          Compile the deskboard binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests in short mode
//	mage test:race      Run tests with the race detector
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install deskboard to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main

// Default target when mage runs without arguments.
var Default = Build
