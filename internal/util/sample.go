package util

import (
	"math/rand"
)

// SampleStrings returns up to n distinct elements of items chosen uniformly
// at random without replacement. items is not modified.
func SampleStrings(items []string, n int) []string {
	if n <= 0 || len(items) == 0 {
		return []string{}
	}
	pool := make([]string, len(items))
	copy(pool, items)
	if n >= len(pool) {
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		return pool
	}
	// Partial Fisher-Yates: the first n slots end up as the sample.
	for i := 0; i < n; i++ {
		j := i + rand.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
