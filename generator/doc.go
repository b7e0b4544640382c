// Package generator runs the mmiogen pipeline over one package directory:
//
//	source.Load -> schema.Parse -> schema.Validate -> synth.Synthesize -> emit.File
//
// Every stage returns an *errors.Error carrying the source position of the
// offending declaration; the pipeline stops at the first one.
//
// # Configuration
//
// [Config] selects the package directory, the blocks to generate, the target
// architecture (which fixes integer alignment) and the output file. Blocks
// nested in a selected block are always generated with it.
//
// # Logging
//
// The pipeline logs through a zap logger, a no-op by default:
//
//	generator.SetLogger(zap.Must(zap.NewDevelopment()))
package generator
