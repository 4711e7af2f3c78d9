// Package storage caches submission attachments pulled from the
// classroom service so previews are served locally.
package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) bool
}
