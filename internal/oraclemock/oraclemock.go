// Package oraclemock provides a gomock double for iommu.MemoryOracle,
// grounded on the generated MockPort/MockEngine/MockSet doubles used
// throughout mem/vm/tlb's test suite (go.uber.org/mock).
//
//go:generate mockgen -destination oraclemock.go -package oraclemock -source ../../iommu/memoracle.go
package oraclemock

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/smmu-sim/iommu"
)

// MockMemoryOracle is a mock of iommu.MemoryOracle, hand-written in the
// shape mockgen would generate.
type MockMemoryOracle struct {
	ctrl     *gomock.Controller
	recorder *MockMemoryOracleMockRecorder
}

// MockMemoryOracleMockRecorder is the mock recorder for MockMemoryOracle.
type MockMemoryOracleMockRecorder struct {
	mock *MockMemoryOracle
}

// NewMockMemoryOracle creates a new mock instance.
func NewMockMemoryOracle(ctrl *gomock.Controller) *MockMemoryOracle {
	mock := &MockMemoryOracle{ctrl: ctrl}
	mock.recorder = &MockMemoryOracleMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMemoryOracle) EXPECT() *MockMemoryOracleMockRecorder {
	return m.recorder
}

// Read mocks base method.
func (m *MockMemoryOracle) Read(addr iommu.PhysicalAddress, out []byte) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Read", addr, out)
	ret0, _ := ret[0].(bool)
	return ret0
}

// Read indicates an expected call of Read.
func (mr *MockMemoryOracleMockRecorder) Read(addr, out any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Read",
		reflect.TypeOf((*MockMemoryOracle)(nil).Read), addr, out)
}

// Write mocks base method.
func (m *MockMemoryOracle) Write(addr iommu.PhysicalAddress, in []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Write", addr, in)
}

// Write indicates an expected call of Write.
func (mr *MockMemoryOracleMockRecorder) Write(addr, in any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Write",
		reflect.TypeOf((*MockMemoryOracle)(nil).Write), addr, in)
}

// AllocatePage mocks base method.
func (m *MockMemoryOracle) AllocatePage(size uint64) iommu.PhysicalAddress {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AllocatePage", size)
	ret0, _ := ret[0].(iommu.PhysicalAddress)
	return ret0
}

// AllocatePage indicates an expected call of AllocatePage.
func (mr *MockMemoryOracleMockRecorder) AllocatePage(size any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AllocatePage",
		reflect.TypeOf((*MockMemoryOracle)(nil).AllocatePage), size)
}

// WriteDescriptor mocks base method.
func (m *MockMemoryOracle) WriteDescriptor(addr iommu.PhysicalAddress, value uint64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "WriteDescriptor", addr, value)
}

// WriteDescriptor indicates an expected call of WriteDescriptor.
func (mr *MockMemoryOracleMockRecorder) WriteDescriptor(addr, value any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteDescriptor",
		reflect.TypeOf((*MockMemoryOracle)(nil).WriteDescriptor), addr, value)
}
