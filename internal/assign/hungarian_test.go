package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHungarian(t *testing.T) {
	inf := Forbidden

	tests := []struct {
		name string
		cost [][]float64
		want []int
	}{
		{
			name: "empty",
			cost: nil,
			want: nil,
		},
		{
			name: "no columns",
			cost: [][]float64{{}, {}},
			want: []int{-1, -1},
		},
		{
			name: "square picks cheapest total",
			cost: [][]float64{
				{4, 1, 3},
				{2, 0, 5},
				{3, 2, 2},
			},
			want: []int{1, 0, 2},
		},
		{
			name: "more rows than columns",
			cost: [][]float64{
				{1},
				{0},
			},
			want: []int{-1, 0},
		},
		{
			name: "forbidden entries stay unassigned",
			cost: [][]float64{
				{inf, inf},
				{3, inf},
			},
			want: []int{-1, 0},
		},
		{
			name: "maximises feasible pairs before cost",
			cost: [][]float64{
				{3, 4},
				{3, inf},
			},
			want: []int{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hungarian(tt.cost))
		})
	}
}
