package recording

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/smmu-sim/iommu"
)

func TestSinkRecordsFaultsAndStatistics(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	mem := iommu.NewSimpleMemory(0)
	o := iommu.NewBuilder().WithMemory(mem).Build()
	o.Enable()
	o.ConfigureStream(0, iommu.StreamConfig{Valid: false})

	o.Translate(0x1000, 0, 1, 0) // invalid stream -> one fault event

	n, err := s.RecordFault(o)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.RecordStatistics(o))

	require.False(t, o.HasEvents())
}

func TestOpenRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/already.sqlite3"

	s, err := Open(path)
	require.NoError(t, err)
	s.Close()

	_, err = Open(path)
	require.Error(t, err)
}
