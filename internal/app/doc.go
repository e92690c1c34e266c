// Package app contains the core application logic. It wires the registry,
// the extension modules, the descriptor loaders and the resolution engine
// together, and owns the process-level concerns around them: tracing, the
// snapshot cache, history, the HTTP endpoints and watch mode. It is
// decoupled from any specific entrypoint like a CLI.
package app
