// Package prebuilt provides ready-made entanglement topologies ("prebuilts")
// for demos, tests and seed data: chains, rings, stars and meshes. Each
// builder wires edges into anything satisfying Entangler, usually an
// *entanglegraph.Graph; the New* variants return a freshly configured graph
// instead. Declarative wiring is available through FromSpec and Apply, which
// consume the specs defined in pkg/validation.
package prebuilt
