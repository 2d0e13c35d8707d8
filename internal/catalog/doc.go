// Package catalog holds the document index model and the Store that owns it.
//
// The Store is the only writer of the catalog. Each mutation is applied in
// memory and handed to a Persister while the write lock is held, which
// makes every committed entry durable before the next file is processed.
// A Persister error leaves memory updated and is returned wrapped in
// ErrPersist so the caller can report it.
package catalog
