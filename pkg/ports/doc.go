/*
Package ports defines the driven ports (interfaces) for the Flowlab studio.

These interfaces decouple the session state machine from external
implementations, allowing the studio to work with various rendering
collaborators and session storage backends.

# Key Interfaces

  - DiagramRenderer: Hands diagram source to the external rendering collaborator.
  - Exporter: Produces downloadable PNG/SVG artifacts from diagram source.
  - SessionStore: Persists and loads Session snapshots.
  - DistributedLocker: Coordinates session access across multiple instances.
*/
package ports
