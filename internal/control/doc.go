// Package control exposes session lifecycle operations as MCP tools.
//
// Tools are kept in a local registry so they can be invoked directly, and
// can also be served over any MCP transport through MCPServer.
package control
