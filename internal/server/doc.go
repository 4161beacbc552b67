// Package server implements the MCP (Model Context Protocol) server that
// exposes the centroid pipeline as tools over JSON-RPC 2.0 on stdio.
//
// Requests arrive one per line on stdin; responses are written as JSON to
// stdout. All logging goes to stderr so it never corrupts the protocol
// stream.
//
// Analysis results are cached per (path, processing width, parameter set):
// repeated calls with unchanged inputs — the common case while an operator
// nudges one slider — skip the pipeline entirely. The cache is invalidated
// for a path when the image is reloaded.
package server
