// Package core defines the shared language of the modelbridge system.
//
// This package contains:
//   - Model entities (Table, Column, Relationship, Model)
//   - The richer upstream join description (SQLRelationshipRecord)
//   - Staging configuration (Settings, ModelHandling, LoadMode, Connection)
//   - Join kind, cardinality and cross-filter vocabularies
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
