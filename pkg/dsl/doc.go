/*
Package dsl provides a fluent builder for defining coordinate trees in Go
code, as an alternative to a Loam repository of Markdown files.

The builder produces a memory loader that plugs straight into the shell:

	tree := dsl.New()

	tree.Menu("0", "Home").
		Prompt("Where to?").
		Option("1", "0.1", "Files").
		Option("2", "0.2", "Report")

	tree.Menu("0.1", "Files").
		Option("1", "0.1.1", "List")

	tree.Callable("0.1.1", "list_files", "files/list")

	tree.Callable("0.2", "write_report", "report/write").
		Args(map[string]any{"format": "$format"})

	loader, err := tree.Build()
	shell, err := lattice.New("", lattice.WithLoader(loader))

Coordinates are free-form dotted strings; the family prefix conventions of
the resolver apply to them exactly as they do to loaded trees.
*/
package dsl
