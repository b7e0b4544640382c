// Package source reads register-block declarations from a Go package directory.
//
// Only syntax is inspected; the package does not need to type-check. Files
// excluded by build constraints for the target architecture, test files, and
// files previously generated by mmiogen are skipped.
package source
