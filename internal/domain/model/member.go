// Package model contains the input records read from the guild datasets.
//
// Decoding is tolerant: absent optional fields default to zero or empty,
// and numeric fields that are missing, negative or not numbers decode as 0.
// Only structurally invalid payloads (wrong JSON kinds) are rejected.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Stat keys recognised on Member.Stats.
const (
	StatHK              = "hk"
	StatQuestsCompleted = "questsCompleted"
	StatRaidsAttended   = "raidsAttended"
)

// maxCount bounds decoded counters to the exactly representable float range.
const maxCount = 1 << 53

// Member is one guild member as found in members.json.
type Member struct {
	CharacterName   string   `json:"characterName"`
	Class           string   `json:"class"`
	Race            string   `json:"race"`
	GuildRank       string   `json:"guildRank"`
	Stats           Stats    `json:"stats"`
	Achievements    []string `json:"achievements"`
	Pets            []string `json:"pets,omitempty"`
	Titles          []string `json:"titles,omitempty"`
	FactionsExalted []string `json:"factionsExalted,omitempty"`
}

// Clone returns a deep copy so callers can hand out members without sharing
// backing arrays with the loaded dataset.
func (m Member) Clone() Member {
	out := m
	out.Stats = m.Stats.Clone()
	out.Achievements = slices.Clone(m.Achievements)
	out.Pets = slices.Clone(m.Pets)
	out.Titles = slices.Clone(m.Titles)
	out.FactionsExalted = slices.Clone(m.FactionsExalted)
	return out
}

// Stats holds a member's counters. Extra keeps any additional numeric
// fields present in the dataset so they can be used as sort keys.
type Stats struct {
	HK              int
	QuestsCompleted int
	RaidsAttended   int
	Extra           map[string]int
}

// Value returns the named counter. Unknown names report 0, false.
func (s Stats) Value(key string) (int, bool) {
	switch key {
	case StatHK:
		return s.HK, true
	case StatQuestsCompleted:
		return s.QuestsCompleted, true
	case StatRaidsAttended:
		return s.RaidsAttended, true
	}
	v, ok := s.Extra[key]
	return v, ok
}

// Clone returns a copy with its own Extra map.
func (s Stats) Clone() Stats {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]int, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// UnmarshalJSON accepts a stats object with any subset of counters.
func (s *Stats) UnmarshalJSON(data []byte) error {
	*s = Stats{}
	if string(data) == "null" {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("stats must be an object: %w", err)
	}
	for key, raw := range fields {
		n := decodeCount(raw)
		switch key {
		case StatHK:
			s.HK = n
		case StatQuestsCompleted:
			s.QuestsCompleted = n
		case StatRaidsAttended:
			s.RaidsAttended = n
		default:
			if !isNumber(raw) {
				continue
			}
			if s.Extra == nil {
				s.Extra = make(map[string]int)
			}
			s.Extra[key] = n
		}
	}
	return nil
}

// MarshalJSON flattens Extra next to the known counters.
func (s Stats) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(s.Extra)+3)
	for k, v := range s.Extra {
		out[k] = v
	}
	out[StatHK] = s.HK
	out[StatQuestsCompleted] = s.QuestsCompleted
	out[StatRaidsAttended] = s.RaidsAttended
	return json.Marshal(out)
}

// decodeCount reads a non-negative integer, truncating fractions. Anything
// that is not a JSON number yields 0.
func decodeCount(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f > maxCount:
		return maxCount
	}
	return int(f)
}

func isNumber(raw json.RawMessage) bool {
	var f float64
	return json.Unmarshal(raw, &f) == nil
}
