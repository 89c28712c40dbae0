// Package dag builds and holds the extraction graph: a directed acyclic
// graph of input, processor and feature nodes merged from every declared
// pipeline. Building happens once per configuration; the resulting Graph is
// immutable and is reused across extraction sessions.
//
// Construction is a four-pass process:
//  1. create: every step becomes a processor node candidate, every raw name
//     an input node, every feature block a feature node; feature references
//     stay as unresolved placeholders.
//  2. dedup: nodes are content-addressed by (processor type, canonical
//     params, dependency hashes) so structurally identical sub-pipelines
//     declared in different files compute once.
//  3. resolve: feature references are rewritten into direct edges to the
//     referenced feature's underlying source node.
//  4. validate: DFS cycle detection and dependent-set computation.
package dag
