// Package mquery reads and writes data-load pipelines in the Power Query
// "M" language.
//
// It understands just enough of the language to work with the shape every
// generated or extracted pipeline has:
//
//	let
//	    Source = Sql.Database("server", "db"),
//	    Items = Source{[Schema = "dbo", Item = "ITEMS"]}[Data]
//	in
//	    Items
//
// A pipeline is parsed into a Document of named steps plus a result
// expression. Step bodies are kept verbatim; only the top-level structure
// is interpreted. Documents render back to text deterministically.
package mquery
