// Package connectors provides document sources for the indexer.
// Each connector knows how to enumerate documents from one kind of
// corpus and, optionally, how to signal that the corpus changed.
package connectors
