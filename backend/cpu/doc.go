// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go executor for kernel descriptors.
//
// # Overview
//
// This package implements a CPU executor with:
//   - Pure Go implementation (no CGO)
//   - Workgroup-shaped dispatch over host goroutines
//   - A per-executor descriptor cache
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gbq/backend/cpu"
//	    "github.com/born-ml/gbq/ops"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    defer backend.Release()
//
//	    out, err := ops.GatherBlockQuantized(ctx, backend, inputs, attrs, ops.Options{})
//	}
//
// # Out-of-range indices
//
// Gather values outside [0, dims[gather_axis]) produce zeros. Set
// ops.Options.CheckIndices to reject them before dispatch instead.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each dispatch allocates its
// own output and shares only the descriptor cache.
package cpu
