/*
Package lattice is a coordinate-addressed navigation shell whose command
surface is a small composable scripting language.

Every capability of a system is an addressable node in a tree of dotted
coordinates ("0.3.1"). Menu nodes present numbered options and act as
navigation waypoints; callable nodes execute registered operations. One
command line can navigate, invoke, or compose both into a chain with
sequencing, conditionals and loops:

	chain files.list -> if $last_result then report.write {"data": "$last_result"} else system.echo {"value": "empty"}

The shell manages resolution (aliases, logical names, family prefixes,
search), execution and session state, while your application ("Host")
registers the callables and owns the I/O. This hexagonal architecture lets
Lattice be embedded in any interface: CLI, HTTP server, or MCP agent
infrastructure.

# Key Features

  - One grammar for everything: navigation, invocation and control flow
    share a single chain language with two front ends producing identical
    execution plans.
  - Explicit calling conventions: callables declare their signature at
    registration; arguments are shaped, never reflected.
  - Session state: position stack, variables, step results and history are
    threaded explicitly and persist across commands.
  - Emergent pathways: record a command sequence, analyze it into a
    parameterized template, and crystallize it as a new callable node.
  - Pluggable persistence: memory, file and Redis session stores behind a
    single port.

# Usage

Initialize the shell from a tree directory (Loam repository of markdown
nodes) or an in-memory loader, then dispatch command lines:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/lattice"
	)

	func main() {
		shell, err := lattice.New("./my-tree")
		if err != nil {
			log.Fatal(err)
		}

		sess := shell.NewSession()
		resp := shell.Dispatch(context.Background(), sess, "chain system.now -> system.echo {\"value\": \"$last_result\"}")
		fmt.Println(resp.Content)
	}

For an interactive loop, use pkg/runner; for hosting, see pkg/adapters.
*/
package lattice
