package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinTemplateUnsupportedSizes(t *testing.T) {
	for _, size := range []int{0, 1, 2, 5, 6} {
		_, err := RoundRobinTemplate(size)
		assert.ErrorIs(t, err, ErrUnsupportedPoolSize, "size %d", size)
	}
}

func TestRoundRobinCompleteness(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		matches     int
		playsEach   int
		maxRefDuty  int
		byeRequired bool
	}{
		{name: "three", size: 3, matches: 3, playsEach: 2, maxRefDuty: 1},
		{name: "four", size: 4, matches: 6, playsEach: 3, maxRefDuty: 2, byeRequired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			template, err := RoundRobinTemplate(tt.size)
			require.NoError(t, err)
			require.Len(t, template, tt.matches)

			plays := make([]int, tt.size)
			refs := make([]int, tt.size)
			pairs := map[[2]int]bool{}
			for i, m := range template {
				assert.Equal(t, i+1, m.Index)
				assert.NotEqual(t, m.A, m.B)
				seen := map[int]bool{m.A: true, m.B: true, m.Referee: true}
				if tt.byeRequired {
					require.NotEqual(t, NoBye, m.Bye)
					seen[m.Bye] = true
				} else {
					assert.Equal(t, NoBye, m.Bye)
				}
				assert.Len(t, seen, tt.size, "every team has exactly one role in match %d", m.Index)

				plays[m.A]++
				plays[m.B]++
				refs[m.Referee]++
				lo, hi := m.A, m.B
				if lo > hi {
					lo, hi = hi, lo
				}
				assert.False(t, pairs[[2]int{lo, hi}], "pair %d-%d played twice", lo, hi)
				pairs[[2]int{lo, hi}] = true
			}

			assert.Len(t, pairs, tt.size*(tt.size-1)/2)
			for pos := 0; pos < tt.size; pos++ {
				assert.Equal(t, tt.playsEach, plays[pos])
				assert.GreaterOrEqual(t, refs[pos], 1)
				assert.LessOrEqual(t, refs[pos], tt.maxRefDuty)
			}
		})
	}
}

func TestRoundRobinFourTeamByesComeFromOffPair(t *testing.T) {
	template, err := RoundRobinTemplate(4)
	require.NoError(t, err)

	byes := make([]int, 4)
	for _, m := range template {
		byes[m.Bye]++
	}
	// each team sits out three matches: one on the bye, the rest on the bye or refereeing
	for pos, n := range byes {
		assert.GreaterOrEqual(t, n, 1, "position %d", pos)
	}
}

func TestGenerateRoundRobinDeterministic(t *testing.T) {
	order := []string{"t1", "t2", "t3", "t4"}

	first, err := GenerateRoundRobin(4, order)
	require.NoError(t, err)
	second, err := GenerateRoundRobin(4, order)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, RoundRobinMatch{Index: 1, TeamA: "t1", TeamB: "t3", Referee: "t2", Bye: "t4"}, first[0])
}

func TestGenerateRoundRobinSizeMismatch(t *testing.T) {
	_, err := GenerateRoundRobin(3, []string{"a", "b"})
	assert.Error(t, err)

	_, err = GenerateRoundRobin(5, []string{"a", "b", "c", "d", "e"})
	assert.ErrorIs(t, err, ErrUnsupportedPoolSize)
}

func TestRoundRobinTemplateReturnsCopy(t *testing.T) {
	template, err := RoundRobinTemplate(3)
	require.NoError(t, err)
	template[0].A = 2

	again, err := RoundRobinTemplate(3)
	require.NoError(t, err)
	assert.Equal(t, 0, again[0].A)
}
