// Package httputil provides the JSON response and error helpers used by the
// HTTP API.
//
// # Errors
//
// [WriteError] maps a structured error's code to an HTTP status and writes
// a JSON body:
//
//	{"error": {"code": "INVALID_GRAPH", "message": "invalid graph: ..."}}
//
// Errors without a code are reported as 500 with a generic message so that
// internal details do not leak.
//
// # Request Bodies
//
// [ReadBody] reads a request body up to a size limit and reports oversized
// or unreadable bodies as INVALID_INPUT.
package httputil
