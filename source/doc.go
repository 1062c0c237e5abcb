// Package source provides adapters that turn common shapes of data sources into batchloader.BatchFunc.
//
// A BatchFunc must return one result per key in the order of the keys. Most data sources do not
// answer that way: a database query returns rows in its own order and omits missing rows, and
// some sources can only look up a single key. The adapters in this package take care of it.
package source
