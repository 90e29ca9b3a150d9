// Package label provides declarative label reconciliation for labelctl.
// It loads a desired label set from YAML files and reconciles GitHub
// repository labels against it: compute a plan of creates, renames,
// updates, and deletes, then apply it with dry-run support and
// per-action failure isolation.
//
// The package includes:
// - RemoteStore interface for label API operations
// - Reconciler interface for state reconciliation
// - Diff engine producing deterministic plans with rename detection
// - Report rendering in text, table, JSON, and YAML encodings
package label
