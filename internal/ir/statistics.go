package ir

import (
	"encoding/json"
	"maps"
	"slices"
)

// IDSet is a set of talent, event or achievement ids. It marshals as a
// sorted JSON array.
type IDSet map[int]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id and reports whether it was new.
func (s IDSet) Add(id int) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports membership.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	maps.Copy(out, s)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := s.Sorted()
	if ids == nil {
		ids = []int{}
	}
	return json.Marshal(ids)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// NoInheritedTalent marks Statistics without an inherited talent.
const NoInheritedTalent = -1

// Statistics is the cross-run progress of one player. The engine updates it in
// memory; persisting it is the caller's concern.
type Statistics struct {
	InheritedTalent int        `json:"inherited_talent"`
	FinishedGames   int        `json:"finished_games"`
	Talents         IDSet      `json:"talents"`
	Events          IDSet      `json:"events"`
	Achievements    IDSet      `json:"achievements"`
	Unique          *Character `json:"unique,omitempty"`
}

// NewStatistics returns statistics for a player who has never played.
func NewStatistics() *Statistics {
	return &Statistics{
		InheritedTalent: NoInheritedTalent,
		Talents:         IDSet{},
		Events:          IDSet{},
		Achievements:    IDSet{},
	}
}

// Clone returns a deep copy.
func (s *Statistics) Clone() *Statistics {
	out := &Statistics{
		InheritedTalent: s.InheritedTalent,
		FinishedGames:   s.FinishedGames,
		Talents:         s.Talents.Clone(),
		Events:          s.Events.Clone(),
		Achievements:    s.Achievements.Clone(),
	}
	if s.Unique != nil {
		u := *s.Unique
		u.Talents = slices.Clone(s.Unique.Talents)
		out.Unique = &u
	}
	return out
}

// Normalize replaces nil sets with empty ones. Decoders call it after
// reading partial documents.
func (s *Statistics) Normalize() {
	if s.Talents == nil {
		s.Talents = IDSet{}
	}
	if s.Events == nil {
		s.Events = IDSet{}
	}
	if s.Achievements == nil {
		s.Achievements = IDSet{}
	}
}
