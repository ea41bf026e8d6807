// Package app wires the editor core to its host: it loads the seed flow,
// builds the editor, serves the canvas socket.io endpoint together with
// /health and /metrics, and shuts everything down when its context ends.
// It is decoupled from any specific entrypoint like a CLI.
package app
