/*
Package session implements session access and persistence orchestration.

It provides high-level abstractions for handling concurrent access to editing
sessions across multiple replicas, combining per-process mutexes with optional
distributed locking and pluggable storage adapters.
*/
package session
