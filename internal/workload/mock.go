package workload

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultMockCount is the number of items GenerateMockData produces by default.
const DefaultMockCount = 10

// MockItem is one generated record.
type MockItem struct {
	ID        int       `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Value     int       `json:"value" yaml:"value"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// GenerateMockData returns count items numbered from 1 with random values in [0, 100).
func GenerateMockData(count int) []MockItem {
	if count < 0 {
		count = 0
	}
	now := time.Now().UTC()
	items := make([]MockItem, count)
	for i := range items {
		items[i] = MockItem{
			ID:        i + 1,
			Name:      fmt.Sprintf("Item %d", i+1),
			Value:     rand.Intn(100),
			Timestamp: now,
		}
	}
	return items
}
