// Package api
// Author: momentics
//
// Mock/testing utilities for all core contracts; extendable for new interfaces.

package api

// MockDiffSource is a test and mock-friendly implementation of DiffSource.
type MockDiffSource struct {
	WatchFunc    func(fn DiffFunc) (cancel func())
	SnapshotFunc func() []byte
}

func (m *MockDiffSource) Watch(fn DiffFunc) (cancel func()) { return m.WatchFunc(fn) }
func (m *MockDiffSource) Snapshot() []byte                  { return m.SnapshotFunc() }

// MockDiffTarget is a test and mock-friendly implementation of DiffTarget.
type MockDiffTarget struct {
	ApplyDiffFunc     func(diff []byte) (bool, error)
	ApplySnapshotFunc func(snap []byte) error
}

func (m *MockDiffTarget) ApplyDiff(diff []byte) (bool, error) { return m.ApplyDiffFunc(diff) }
func (m *MockDiffTarget) ApplySnapshot(snap []byte) error     { return m.ApplySnapshotFunc(snap) }

// Extend with mocks for additional core contracts as architecture evolves.
