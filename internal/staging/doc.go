// Package staging resolves complex relationships of an extracted model into
// synthesized staging tables.
//
// A relationship is complex when it joins on more than one column, or when
// the pair of tables it connects is connected more than once. Complex joins
// are grouped per unordered table pair, and each group is resolved by one
// synthesized table:
//
//   - star_schema: a dimension table holding the join columns and a hidden
//     composite key, related one-to-many to each base table. The originals
//     of the group are dropped and each base table's pipeline gains a step
//     computing the composite key.
//   - merged_tables: a combination table joining both tables' columns.
//     The relationship graph is left unchanged.
//
// Resolver drives the whole process. The individual stages (Classify,
// GroupJoins, DeriveKey, the synthesizers, FactAugmenter and
// PipelineEmitter) are exported so they can be exercised on their own.
package staging
