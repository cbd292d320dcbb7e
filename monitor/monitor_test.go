package monitor

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/smmu-sim/iommu"
)

func TestMonitorStatsEndpoint(t *testing.T) {
	mem := iommu.NewSimpleMemory(0)
	o := iommu.NewBuilder().WithMemory(mem).Build()
	o.Enable()

	m := New(o)
	addr, err := m.StartServer()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats iommu.Statistics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
}

func TestMonitorHealthEndpoint(t *testing.T) {
	mem := iommu.NewSimpleMemory(0)
	o := iommu.NewBuilder().WithMemory(mem).Build()

	m := New(o)
	addr, err := m.StartServer()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rsp healthRsp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rsp))
	require.False(t, rsp.Enabled)
}
