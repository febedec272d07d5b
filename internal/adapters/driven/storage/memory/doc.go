// Package memory provides in-memory implementations of the driven ports.
// Nothing is persisted; state lives as long as the value does.
package memory
