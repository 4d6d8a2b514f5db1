// Package storage provides the embedded persistence layer: a KVEngine
// abstraction backed by Badger, and JSON repositories for devices and
// management API keys on top of it.
//
// The registry is small and write-light; the engine is tuned for
// durable writes over throughput, with periodic value-log GC.
package storage
