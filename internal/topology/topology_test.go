package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/models"
)

func testNodes() []models.NodeSpec {
	return []models.NodeSpec{
		{ID: "plant-1", Name: "Power Plant", Kind: "plant"},
		{ID: "sub-north", Name: "North Substation", Kind: "substation"},
		{ID: "sub-south", Name: "South Substation", Kind: "substation"},
		{ID: "district-a", Name: "District A", Kind: "district"},
	}
}

func testLinks() []models.LinkSpec {
	return []models.LinkSpec{
		{Source: "plant-1", Target: "sub-north", Kind: "power", Capacity: 100},
		{Source: "plant-1", Target: "sub-south", Kind: "power", Capacity: 80},
		{Source: "sub-north", Target: "district-a", Kind: "power", Capacity: 40},
	}
}

func TestBuildAndSnapshot(t *testing.T) {
	network, err := Build(testNodes(), testLinks())
	require.NoError(t, err)

	data, err := network.Snapshot()
	require.NoError(t, err)

	require.Len(t, data.Nodes, 4)
	require.Len(t, data.Links, 3)

	// Nodes keep configured order and carry degrees.
	assert.Equal(t, "plant-1", data.Nodes[0].ID)
	assert.Equal(t, 2, data.Nodes[0].Degree)
	assert.Equal(t, "district-a", data.Nodes[3].ID)
	assert.Equal(t, 1, data.Nodes[3].Degree)

	assert.Equal(t, "power", data.Links[0].Kind)
	assert.NotZero(t, data.Links[0].Capacity)
}

func TestBuildRejectsDanglingLink(t *testing.T) {
	links := append(testLinks(), models.LinkSpec{Source: "plant-1", Target: "nowhere"})
	_, err := Build(testNodes(), links)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestBuildRejectsDuplicateNode(t *testing.T) {
	nodes := append(testNodes(), models.NodeSpec{ID: "plant-1"})
	_, err := Build(nodes, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNeighbors(t *testing.T) {
	network, err := Build(testNodes(), testLinks())
	require.NoError(t, err)

	neighbors, err := network.Neighbors("plant-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-north", "sub-south"}, neighbors)

	_, err = network.Neighbors("ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestStats(t *testing.T) {
	network, err := Build(testNodes(), testLinks())
	require.NoError(t, err)

	stats, err := network.Stats()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Links)
	assert.Equal(t, "plant-1", stats.MaxDegreeID)
	assert.Equal(t, 2, stats.MaxDegree)
	assert.InDelta(t, 0.5, stats.Density, 1e-9)
}

func TestStatsSingleNode(t *testing.T) {
	network, err := Build([]models.NodeSpec{{ID: "lone"}}, nil)
	require.NoError(t, err)

	stats, err := network.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Density)
}
