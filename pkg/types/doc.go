// Package types defines the entity types, the structured query, the store
// interfaces, and the standard errors shared by every motif package.
//
// Components and compositions come from the static catalog. Embeddings,
// feedback records, and code patterns accumulate at runtime inside the same
// embedded store.
package types
