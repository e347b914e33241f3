package model

import (
	"encoding/json"
	"fmt"
)

// Achievement is one catalog entry as found in achievements.json.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
}

// UnmarshalJSON clamps points to a non-negative integer; an absent or
// non-numeric value becomes 0.
func (a *Achievement) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Points      json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("achievement: %w", err)
	}
	*a = Achievement{
		Name:        wire.Name,
		Description: wire.Description,
		Category:    wire.Category,
	}
	if len(wire.Points) > 0 {
		a.Points = decodeCount(wire.Points)
	}
	return nil
}
