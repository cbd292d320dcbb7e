package iommu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/smmu-sim/internal/oraclemock"
	"github.com/sarchlab/smmu-sim/iommu"
)

func TestWalkDescriptorReadFailureIsTranslationFault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := oraclemock.NewMockMemoryOracle(ctrl)
	mock.EXPECT().Read(gomock.Any(), gomock.Any()).Return(false)

	_, ok, reason := iommu.Walk(mock, 0x1000, 0, 12, 48, iommu.Stage1)
	assert.False(t, ok)
	assert.Equal(t, "Failed to read descriptor", reason)
}
