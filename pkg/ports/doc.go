// Package ports defines the boundary interfaces of the lattice shell:
// tree loading, callable resolution and session persistence. Adapters in
// pkg/adapters implement them; the core depends only on these contracts.
package ports
