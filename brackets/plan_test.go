package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

func mustPlan(t *testing.T, name string, size int) []Node {
	t.Helper()
	shape, err := ParseShape(name, size)
	require.NoError(t, err)
	nodes, err := BuildBracketPlan(Definition{Label: "gold", Shape: shape})
	require.NoError(t, err)
	return nodes
}

func keys(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID() + ":" + n.Key
	}
	return out
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		want    string
		wantErr bool
	}{
		{name: ShapeSingleElimination, size: 4, want: ShapeSingleElimination},
		{name: ShapeSingleElimination, size: 16, want: ShapeSingleElimination},
		{name: ShapeSingleElimination, size: 6, wantErr: true},
		{name: ShapeSixTeamBye, want: ShapeSixTeamBye},
		{name: ShapeSixTeamBye, size: 8, wantErr: true},
		{name: ShapeFiveTeamOps, size: 5, want: ShapeFiveTeamOps},
		{name: "doubleElimination", size: 8, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := ParseShape(tt.name, tt.size)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape.Name())
		})
	}
}

func TestBuildBracketPlanFiveTeamOps(t *testing.T) {
	nodes := mustPlan(t, ShapeFiveTeamOps, 5)
	assert.Equal(t, []string{
		"R1M1:4v5",
		"R1M2:2v3",
		"R2M1:1vW45",
		"R3M1:W145vW23",
	}, keys(nodes))

	final := nodes[3]
	require.NotNil(t, final.FromB)
	assert.Equal(t, Feed{Round: 1, MatchNo: 2, Outcome: models.OutcomeWinner}, *final.FromB)
}

func TestBuildBracketPlanSixTeamBye(t *testing.T) {
	nodes := mustPlan(t, ShapeSixTeamBye, 6)
	assert.Equal(t, []string{
		"R1M1:4v5",
		"R1M2:3v6",
		"R2M1:1vW45",
		"R2M2:2vW36",
		"R3M1:W145vW236",
	}, keys(nodes))
}

func TestBuildBracketPlanSingleElimination(t *testing.T) {
	t.Run("four", func(t *testing.T) {
		nodes := mustPlan(t, ShapeSingleElimination, 4)
		assert.Equal(t, []string{"R1M1:1v4", "R1M2:2v3", "R2M1:W14vW23"}, keys(nodes))
	})

	t.Run("eight", func(t *testing.T) {
		nodes := mustPlan(t, ShapeSingleElimination, 8)
		require.Len(t, nodes, 7)
		assert.Equal(t, []string{"R1M1:1v8", "R1M2:4v5", "R1M3:2v7", "R1M4:3v6"}, keys(nodes[:4]))
		assert.Equal(t, "R3M1", nodes[6].ID())
	})

	t.Run("sixteen", func(t *testing.T) {
		nodes := mustPlan(t, ShapeSingleElimination, 16)
		require.Len(t, nodes, 15)
		for _, n := range nodes[:8] {
			require.NotNil(t, n.SeedA)
			require.NotNil(t, n.SeedB)
			assert.Equal(t, 17, *n.SeedA+*n.SeedB)
		}
		assert.Equal(t, 4, nodes[14].Round)
	})
}

func TestBuildBracketPlanTopSeedsMeetInFinal(t *testing.T) {
	for _, size := range []int{4, 8, 16} {
		nodes := mustPlan(t, ShapeSingleElimination, size)
		half := size / 2
		for _, n := range nodes[:half] {
			top := *n.SeedA == 1 || *n.SeedB == 1
			second := *n.SeedA == 2 || *n.SeedB == 2
			assert.False(t, top && second)
		}
		// seed 1 sits in the first half of round 1, seed 2 in the second
		for i, n := range nodes[:half] {
			if *n.SeedA == 2 || *n.SeedB == 2 {
				assert.GreaterOrEqual(t, i, half/2)
			}
		}
	}
}

func TestBuildBracketPlanWithoutShape(t *testing.T) {
	_, err := BuildBracketPlan(Definition{Label: "x"})
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestBuildBracketPlanDeterministic(t *testing.T) {
	assert.Equal(t, mustPlan(t, ShapeSingleElimination, 8), mustPlan(t, ShapeSingleElimination, 8))
}
