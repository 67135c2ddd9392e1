/*
Package flowlab is an educational Mermaid diagramming studio for classrooms.

It manages editing sessions as a deterministic state machine: students pick a
starter template, edit the diagram text, undo and redo freely, and render the
result through an external rendering collaborator. What a student sees is
always the text they typed plus the last picture that rendered successfully;
failed renders never destroy the previous picture.

# Concept

The Studio separates the session state machine (Logic) from persistence and
rendering (Adapters). Every operation loads a session snapshot, applies a pure
transition, and persists the result. This Hexagonal Architecture allows
Flowlab to be embedded in any interface: HTTP classroom server, CLI, or AI
Agent infrastructure (MCP).

# Key Features

  - Deterministic Transitions: Undo after N edits always walks back through
    the same N states.
  - Friendly Failures: Render errors surface as plain-language hints, never
    raw parser diagnostics.
  - State Persistence: Pluggable stores (memory, file, Redis) support
    "Stop & Resume" across server restarts.
  - Export Pipeline: Download any session as PNG, SVG, or raw Mermaid source.

# Usage

Initialize the Studio, start a session, and drive it through its operations.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/flowlab-edu/flowlab"
	)

	func main() {
		studio, err := flowlab.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		sess, err := studio.NewSession(ctx)
		if err != nil {
			log.Fatal(err)
		}

		// Start from a template and make an edit.
		sess, _ = studio.SelectTemplate(ctx, sess.ID, "simple-flow")
		sess, _ = studio.Edit(ctx, sess.ID, "graph TD\n  A --> B")

		// Render through the external collaborator.
		_, result, err := studio.Render(ctx, sess.ID)
		if err != nil {
			log.Fatal(err)
		}
		if !result.OK {
			fmt.Println("hint:", result.Hint)
		}
	}

For multi-replica deployments, wire a Redis store and locker:

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	studio, _ := flowlab.New(
		flowlab.WithStore(redisadapter.NewFromClient(client)),
		flowlab.WithLocker(redisadapter.NewLocker(client, "flowlab:lock:")),
	)
*/
package flowlab
