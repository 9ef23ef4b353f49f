// Package model holds the value types shared across the query engine:
// source stream descriptors, result rows, and navigation primitives.
// Nothing in this package touches a runtime connection or the filesystem.
package model

// --- Source streams ---

// Stream identifies one of the canonical hourly-sharded data sources.
type Stream string

const (
	StreamSamples    Stream = "samples"
	StreamSyscend    Stream = "syscend"
	StreamIorqend    Stream = "iorqend"
	StreamKstacks    Stream = "kstacks"
	StreamUstacks    Stream = "ustacks"
	StreamPartitions Stream = "partitions"
)

// AllStreams lists every canonical stream in discovery order. samples is
// always first since every query depends on it.
var AllStreams = []Stream{
	StreamSamples,
	StreamSyscend,
	StreamIorqend,
	StreamKstacks,
	StreamUstacks,
	StreamPartitions,
}

// Ext is the on-disk file extension for a stream shard.
type Ext string

const (
	ExtCSV     Ext = "csv"
	ExtParquet Ext = "parquet"
)

// Column describes one column of a stream as discovered by the Schema
// Registry: its name exactly as the source spells it, and its declared
// runtime type string (e.g. "BIGINT", "VARCHAR").
type Column struct {
	Name string
	Type string
}
