// Package workload contains small, self-contained functions that put a
// predictable kind of load on the process: fast and slow sorts, CPU spins,
// heap and stack pressure, artificial latency and mock payloads.
package workload

import "math/rand"

// DefaultArraySize is the length of arrays generated when none is given.
const DefaultArraySize = 100

// GenerateTestArray returns size random integers in [0, 1000).
func GenerateTestArray(size int) []int {
	if size < 0 {
		size = 0
	}
	arr := make([]int, size)
	for i := range arr {
		arr[i] = rand.Intn(1000)
	}
	return arr
}

// QuickSort returns a sorted copy of arr using a middle-element pivot.
// It allocates new slices at every level on purpose; it is the "efficient"
// sort only relative to BubbleSort.
func QuickSort(arr []int) []int {
	if len(arr) <= 1 {
		return append([]int(nil), arr...)
	}

	mid := len(arr) / 2
	pivot := arr[mid]
	var left, right []int
	for i, v := range arr {
		if i == mid {
			continue
		}
		if v < pivot {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	sorted := make([]int, 0, len(arr))
	sorted = append(sorted, QuickSort(left)...)
	sorted = append(sorted, pivot)
	return append(sorted, QuickSort(right)...)
}

// BubbleSort returns a sorted copy of arr in O(n²).
func BubbleSort(arr []int) []int {
	sorted := append([]int(nil), arr...)
	n := len(sorted)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}
	return sorted
}
