// Package mmiogen generates typed handles for memory-mapped register blocks.
//
// A register block is an ordinary Go struct marked with a //mmio:block
// directive. Its fields are the registers, in address order, each annotated
// with the accesses the hardware allows:
//
//	//mmio:block
//	type Uart struct {
//	    _       structs.HostLayout
//	    Control uint32
//	    Status  uint32    `mmio:"PureRead"`
//	    Data    [4]uint32 `mmio:"Read,Write"`
//	    _       uint32
//	    Fifo    Fifo      `mmio:"Inner"`
//	}
//
// Running mmiogen (usually through go generate) writes a <package>_mmio.go
// file with a MmioUart handle exposing ReadControl, WriteControl,
// ModifyControl, ReadStatus, bounds-checked ReadData(i) and WriteData(i, v),
// and Fifo() for the nested block, plus a read-only SharedMmioUart view.
//
// # Architecture Overview
//
//	mmiogen/
//	├── schema/      Block descriptors: tag parsing and layout validation
//	├── synth/       Accessor method sets derived from validated blocks
//	├── emit/        Go source rendering of the method sets
//	├── source/      Loading //mmio:block declarations from a package
//	├── generator/   The pipeline from a package directory to a file
//	├── mmio/        Runtime used by generated code: handles and volatile access
//	├── sim/         Simulated register memory backed by a wasm linear memory
//	├── errors/      Structured error types with source positions
//	└── cmd/mmiogen/ The command, with an interactive register inspector
//
// # Access Annotations
//
// Tags combine PureRead or Read with Write and Modify. A field without a tag
// gets PureRead, Write and Modify. Inner marks a nested register block.
// Fields named _ or starting with an underscore or "reserved" are padding:
// they count toward the size check but get no accessors.
//
// # Borrowing
//
// Handles track exclusive use at run time. A handle returned by a nested
// accessor is invalidated by the next mutating access through its parent, and
// using it afterwards panics with *mmio.BorrowError. The Steal variants and
// Clone return untied handles for callers that coordinate access themselves.
package mmiogen
