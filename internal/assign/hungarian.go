// Package assign solves rectangular minimum-cost assignment problems.
package assign

import "math"

// Forbidden marks a cost matrix entry that must never be selected.
var Forbidden = math.Inf(1)

// Hungarian solves the rectangular assignment problem for an n×m cost matrix
// with the Kuhn–Munkres algorithm in O(max(n,m)³). It returns rows[i] = the
// column assigned to row i, or -1 when row i is unassigned.
//
// Entries that are Forbidden (any +Inf) are never selected. Inside the solver
// they cost one more than the sum of every feasible entry, so the solver first
// maximises the number of feasible pairs and then minimises their total cost.
// Feasible costs must be finite and non-negative.
func Hungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	if m == 0 {
		result := make([]int, n)
		for i := range result {
			result[i] = -1
		}
		return result
	}

	dim := max(n, m)

	bigM := 1.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if !math.IsInf(cost[i][j], 1) {
				bigM += cost[i][j]
			}
		}
	}

	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m && !math.IsInf(cost[i][j], 1) {
				c[i][j] = cost[i][j]
			} else {
				c[i][j] = bigM
			}
		}
	}

	// Jonker-Volgenant style potentials, 1-indexed; column 0 is virtual.
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)   // p[j] = row assigned to column j
	way := make([]int, dim+1) // previous column on the augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := make([]int, dim)
	for i := range rowAssign {
		rowAssign[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if p[j] > 0 && p[j] <= dim {
			rowAssign[p[j]-1] = j - 1
		}
	}

	result := make([]int, n)
	for i := 0; i < n; i++ {
		col := rowAssign[i]
		if col < 0 || col >= m || math.IsInf(cost[i][col], 1) {
			result[i] = -1
		} else {
			result[i] = col
		}
	}

	return result
}
