// Package assign solves the rectangular linear assignment problem used to
// associate tracks with detections.
//
// The optimal assignment itself is computed by
// github.com/arthurkushman/go-hungarian (SolveMax over a profit matrix);
// this package converts costs to profits, pads non-square cost matrices
// with a sentinel derived from the matrix itself rather than a fixed
// constant, and applies the gate.
package assign

import (
	hungarian "github.com/arthurkushman/go-hungarian"
)

// Pair is a matched (track, detection) index pair.
type Pair struct {
	TrackIdx     int
	DetectionIdx int
}

// Solve finds the minimum-cost assignment between numTracks tracks (rows)
// and numDetections detections (columns) of costMatrix, accepting only
// pairs whose cost is strictly below gate. Rows/columns left unmatched by
// the optimal assignment, or matched above the gate, are returned as
// unassigned.
//
// numTracks and numDetections are passed explicitly, rather than derived
// from len(costMatrix)/len(costMatrix[0]), because a matrix with zero rows
// carries no column count to recover.
//
// costMatrix may be non-square; it is padded with a sentinel value larger
// than any real cost so that padding cells are never chosen over a real
// pairing, matching the "pad with a large sentinel" contract described for
// rectangular cost matrices.
func Solve(costMatrix [][]float64, numTracks, numDetections int, gate float64) (pairs []Pair, unassignedTracks, unassignedDetections []int) {
	if numTracks == 0 {
		return nil, nil, rangeSlice(numDetections)
	}
	if numDetections == 0 {
		return nil, rangeSlice(numTracks), nil
	}

	sentinel := maxCost(costMatrix)*2 + 1

	size := numTracks
	if numDetections > size {
		size = numDetections
	}

	profit := make([][]float64, size)
	for i := range profit {
		profit[i] = make([]float64, size)
		for j := range profit[i] {
			if i < numTracks && j < numDetections {
				profit[i][j] = sentinel - costMatrix[i][j]
			} else {
				profit[i][j] = 0
			}
		}
	}

	result := hungarian.SolveMax(profit)

	matchedTracks := make(map[int]bool, numTracks)
	matchedDetections := make(map[int]bool, numDetections)

	for rowIdx, cols := range result {
		for colIdx, p := range cols {
			if rowIdx >= numTracks || colIdx >= numDetections {
				continue
			}
			cost := sentinel - p
			if cost >= gate {
				continue
			}
			pairs = append(pairs, Pair{TrackIdx: rowIdx, DetectionIdx: colIdx})
			matchedTracks[rowIdx] = true
			matchedDetections[colIdx] = true
		}
	}

	for i := 0; i < numTracks; i++ {
		if !matchedTracks[i] {
			unassignedTracks = append(unassignedTracks, i)
		}
	}
	for j := 0; j < numDetections; j++ {
		if !matchedDetections[j] {
			unassignedDetections = append(unassignedDetections, j)
		}
	}

	return pairs, unassignedTracks, unassignedDetections
}

func rangeSlice(n int) []int {
	if n == 0 {
		return nil
	}
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func maxCost(m [][]float64) float64 {
	max := 0.0
	for _, row := range m {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}
