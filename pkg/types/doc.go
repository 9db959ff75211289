// Package types defines the entity kinds, the Record and Link types, the
// Table interface, configuration, and the error taxonomy shared by the
// deskboard store, its sheet backends, and the CLI.
package types
