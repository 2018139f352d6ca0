// Package entanglegraph provides the public façade for embedding the
// entanglement graph without importing internal packages. It re-exports the
// core types and exposes a Runtime that wires a graph, the observation
// stream, the journal and analytics into one ready-to-use pipeline.
package entanglegraph
