// Package publish uploads exported documents to remote storage. Objects are
// keyed by the document's own file name below a fixed prefix in a fixed
// bucket.
package publish
