// Package types defines the shared types for the ferry migration tool:
// the runtime configuration, the relational source records produced by the
// extraction adapter, and the target document model loaded into MongoDB.
package types
