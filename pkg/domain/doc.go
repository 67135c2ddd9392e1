/*
Package domain contains the core domain models for the Flowlab studio.

It defines the fundamental entities of the diagram session state machine, such
as the diagram Source, the Session snapshot, Templates, and render outcomes.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Source: The current diagram text and its on-disk path (if any).
  - Session: The runtime snapshot of one editing session (source, undo/redo
    stacks, last successful render).
  - Template: A predefined starter diagram.
  - RenderResult: The Success/Failure outcome of handing source to the
    rendering collaborator.
*/
package domain
