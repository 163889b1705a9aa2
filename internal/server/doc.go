// Package server exposes the supervisor's command surface to the host UI as
// MCP tools over an SSE endpoint. Every mutating tool returns the full state
// snapshot so the UI never has to issue a follow-up query.
package server
