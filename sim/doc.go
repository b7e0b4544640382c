// Package sim provides simulated register memory for tests and the inspector.
//
// A [Memory] is the linear memory of a wasm module instantiated in wazero. The
// module declares one fixed-size memory and nothing else, so the memory never
// grows and addresses handed out by [Memory.Map] stay valid until Close.
//
//	mem, err := sim.New(ctx, 1)
//	defer mem.Close(ctx)
//	r, err := mem.Map("uart0", 84, 4)
//	uart := NewMmioUartAt(r.Addr())
//
// Code under test writes through generated handles; assertions read the
// memory back through wazero's little-endian accessors, so sim assumes a
// little-endian host.
package sim
