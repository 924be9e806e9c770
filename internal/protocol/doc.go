// Package protocol defines the shared-bus contract for the cradle node
// ring: the fixed peer address space, the single-byte payload tags, and
// the typed request/reply payload builders and parsers layered above the
// frame codec.
package protocol
