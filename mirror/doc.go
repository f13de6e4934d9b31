// File: mirror/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package mirror keeps a shadow replica of a mutable state container in
// sync across goroutines without locking the transfer path.
//
// The mutating side serializes each change into a bounded slot ring;
// the polling side drains records in FIFO order and patches the
// replica. When the ring fills, the producer raises an overflow state
// instead of blocking, and the next poll discards the backlog and
// reimages the replica from a full snapshot. The replica is therefore
// always some exact prefix of the source's history, never a corrupted
// blend.
package mirror
