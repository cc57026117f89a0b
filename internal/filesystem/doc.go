// Package filesystem wraps os.Stat and os.Open with retries for stale NFS
// file handles (ESTALE).
//
// Media directories are often NFS mounts, where a file handle can go stale
// while the indexer walks the tree. Only ESTALE is retried, with capped
// exponential backoff; every other error is returned immediately.
//
//	info, err := filesystem.Stat(ctx, path, filesystem.DefaultRetryConfig())
package filesystem
