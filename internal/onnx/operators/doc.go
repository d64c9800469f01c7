// Package operators maps ONNX nodes to gbq kernels.
//
// The registry holds one handler per (domain, op type). Each handler reads
// the node's attributes, validates inputs and delegates to the executor
// carried by the Context.
//
// Registered operators:
//   - com.microsoft::GatherBlockQuantized
package operators
