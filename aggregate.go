package vgrid

import (
	"slices"
)

// Aggregator reduces the present values of one column across a group's
// descendant leaf rows. values never contains missing entries; rows is the
// number of descendant leaf rows including those with missing values.
type Aggregator func(values []any, rows int) any

// Extent is the result of the Extent aggregator.
type Extent struct {
	Min, Max any
}

// Count counts descendant rows.
func Count(_ []any, rows int) any { return rows }

// Sum adds numeric values; non-numeric values are ignored.
func Sum(values []any, _ int) any {
	var sum float64
	for _, v := range values {
		if f, ok := toFloat64(v); ok {
			sum += f
		}
	}
	return sum
}

// Mean averages numeric values. It returns nil when there are none.
func Mean(values []any, _ int) any {
	var sum float64
	n := 0
	for _, v := range values {
		if f, ok := toFloat64(v); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return sum / float64(n)
}

// Median returns the median of numeric values, or nil when there are none.
func Median(values []any, _ int) any {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat64(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nil
	}
	slices.Sort(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return nums[mid]
	}
	return (nums[mid-1] + nums[mid]) / 2
}

// Min returns the smallest value by CompareValues.
func Min(values []any, _ int) any {
	if len(values) == 0 {
		return nil
	}
	return slices.MinFunc(values, CompareValues)
}

// Max returns the largest value by CompareValues.
func Max(values []any, _ int) any {
	if len(values) == 0 {
		return nil
	}
	return slices.MaxFunc(values, CompareValues)
}

// ExtentOf returns the smallest and largest values as an Extent.
func ExtentOf(values []any, rows int) any {
	if len(values) == 0 {
		return nil
	}
	return Extent{Min: Min(values, rows), Max: Max(values, rows)}
}

// UniqueCount counts distinct values.
func UniqueCount(values []any, _ int) any {
	seen := make(map[any]struct{}, len(values))
	for _, v := range values {
		seen[bucketKey(v)] = struct{}{}
	}
	return len(seen)
}
