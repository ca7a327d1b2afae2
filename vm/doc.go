// Package vm implements the Scratch project execution engine.
//
// This package contains:
//   - the dynamically-typed Value and its Scratch coercion rules
//   - HSB/RGB color conversion
//   - the block graph arena, sprites, monitors and the clone pool
//   - collision and fencing geometry
//   - the block interpreter and its cooperative per-frame scheduler
//
// Everything outside the engine (project decoding, rendering, audio, raw
// input, cloud networking) talks to a Runtime through the small interfaces
// in collaborators.go.
package vm
