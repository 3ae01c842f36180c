package main

import (
	"sort"

	"github.com/maruel/natural"
)

// SortStrategy defines the interface for page ordering strategies
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(names []string) []string
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// NaturalSortStrategy implements natural sorting using maruel/natural
type NaturalSortStrategy struct{}

func (s *NaturalSortStrategy) Sort(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}

	// Create a copy to avoid modifying the original
	result := make([]string, len(names))
	copy(result, names)

	sort.Sort(natural.StringSlice(result))

	return result
}

func (s *NaturalSortStrategy) Name() string {
	return "Natural"
}

func (s *NaturalSortStrategy) ID() int {
	return SortNatural
}

// SimpleSortStrategy implements lexicographical sorting
type SimpleSortStrategy struct{}

func (s *SimpleSortStrategy) Sort(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}

	// Create a copy to avoid modifying the original
	result := make([]string, len(names))
	copy(result, names)

	sort.Strings(result)

	return result
}

func (s *SimpleSortStrategy) Name() string {
	return "Simple"
}

func (s *SimpleSortStrategy) ID() int {
	return SortSimple
}

// EntryOrderSortStrategy preserves the archive entry order
type EntryOrderSortStrategy struct{}

func (s *EntryOrderSortStrategy) Sort(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}

	// Create a copy to avoid modifying the original
	result := make([]string, len(names))
	copy(result, names)

	return result
}

func (s *EntryOrderSortStrategy) Name() string {
	return "Entry Order"
}

func (s *EntryOrderSortStrategy) ID() int {
	return SortEntryOrder
}

// GetSortStrategy returns the appropriate strategy based on the sort method ID
func GetSortStrategy(sortMethod int) SortStrategy {
	switch sortMethod {
	case SortNatural:
		return &NaturalSortStrategy{}
	case SortSimple:
		return &SimpleSortStrategy{}
	case SortEntryOrder:
		return &EntryOrderSortStrategy{}
	default:
		return &NaturalSortStrategy{} // Default fallback
	}
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return []SortStrategy{
		&NaturalSortStrategy{},
		&SimpleSortStrategy{},
		&EntryOrderSortStrategy{},
	}
}
