// Package server implements the MCP (Model Context Protocol) server for the
// shape retrieval tools.
//
// This package provides a JSON-RPC 2.0 server that exposes boundary descriptor
// computation and histogram retrieval through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - shape_scale_unit: Foreground bounding box, extent and scale unit of a mask
//   - shape_interest_points: Boundary interest points of a mask, optionally rendered
//   - shape_patches: Patch pairs around the interest points, optionally rendered
//   - shape_describe: Descriptor count, dimension and vectors for an image
//   - shape_query: Ranked database candidates for a query image
//
// # Caching
//
// Decoded images, interest points (by mask content), vocabularies and
// databases (by path) are cached for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(logger)
//	if err := srv.Run(); err != nil {
//	    return err
//	}
package server
