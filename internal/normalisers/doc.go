// Package normalisers turns files of different formats into plain text for
// ingestion. Each subpackage handles one family of MIME types; a Registry
// picks the highest-priority normaliser for a file.
package normalisers
