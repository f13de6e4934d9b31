// File: tree/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package tree implements the mutable hierarchical state container that
// hioload-mirror keeps replicas of: typed nodes with ordered properties
// and ordered children, guarded by one RWMutex per tree.
//
// Every successful mutation gets a monotonically increasing revision
// and is reported to watchers as a compact binary record while the
// write lock is held, so the record stream reproduces the exact
// mutation order. The same records patch a replica tree through
// ApplyDiff; full-sync records produced by Snapshot reimage a replica
// wholesale. Revision gating makes replay idempotent: a record at or
// below the replica's revision is skipped.
package tree
