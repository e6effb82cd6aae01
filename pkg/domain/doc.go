// Package domain defines the core data model of the lattice shell: nodes in
// the coordinate tree, tagged argument values, session state, shortcuts and
// the error taxonomy. It has no dependencies on the runtime or adapters.
package domain
