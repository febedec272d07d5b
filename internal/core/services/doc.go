// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IndexService is the reconciliation engine: it hashes source documents,
// drops intra-batch duplicates, checks the ledger, writes what changed and
// sweeps stale entries according to the cleanup mode. The remaining
// services wrap it and the other ports for the CLI.
//
// Services are pure Go with no CGO.
package services
