package testutil

import (
	"slices"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

// Builder assembles ir.Tables for tests without going through CUE.
//
// Example:
//
//	tables := testutil.NewBuilder().
//		AddTalent(testutil.Talent(1, "lucky")).
//		AddEvent(testutil.Event(10, "born")).
//		AddEvent(testutil.Dies(testutil.Event(11, "died"))).
//		Age(0, 10).
//		Age(1, 11).
//		Build()
type Builder struct {
	t *ir.Tables
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{t: ir.NewTables()}
}

// AddTalent registers talents.
func (b *Builder) AddTalent(talents ...*ir.Talent) *Builder {
	for _, t := range talents {
		b.t.Talents[t.ID] = t
	}
	return b
}

// AddEvent registers events.
func (b *Builder) AddEvent(events ...*ir.Event) *Builder {
	for _, e := range events {
		b.t.Events[e.ID] = e
	}
	return b
}

// AddAchievement appends achievements in declared order.
func (b *Builder) AddAchievement(achievements ...*ir.Achievement) *Builder {
	b.t.Achievements = append(b.t.Achievements, achievements...)
	return b
}

// Age appends equally weighted entries to an age.
func (b *Builder) Age(age int, eventIDs ...int) *Builder {
	for _, id := range eventIDs {
		b.t.Ages[age] = append(b.t.Ages[age], ir.AgeEntry{EventID: id, Weight: 1})
	}
	return b
}

// WeightedAge appends entries with explicit weights to an age.
func (b *Builder) WeightedAge(age int, entries ...ir.AgeEntry) *Builder {
	b.t.Ages[age] = append(b.t.Ages[age], entries...)
	return b
}

// AddCharacter appends celebrity characters.
func (b *Builder) AddCharacter(chars ...*ir.Character) *Builder {
	b.t.Characters = append(b.t.Characters, chars...)
	return b
}

// Digest sets the tables digest.
func (b *Builder) Digest(d string) *Builder {
	b.t.Digest = d
	return b
}

// Build returns the assembled tables.
func (b *Builder) Build() *ir.Tables {
	return b.t
}

// Cond parses a condition or panics.
func Cond(src string) condition.Expr {
	return condition.MustParse(src)
}

// Talent returns a common talent that fires once, unconditionally.
func Talent(id int, name string) *ir.Talent {
	return &ir.Talent{
		ID:         id,
		Name:       name,
		Rarity:     ir.Common,
		MaxExecute: 1,
		Condition:  condition.True,
	}
}

// Exclusive marks t exclusive and returns it.
func Exclusive(t *ir.Talent) *ir.Talent {
	t.Exclusive = true
	return t
}

// Excludes declares t incompatible with ids and returns it.
func Excludes(t *ir.Talent, ids ...int) *ir.Talent {
	t.Exclude = append(t.Exclude, ids...)
	slices.Sort(t.Exclude)
	t.Exclude = slices.Compact(t.Exclude)
	return t
}

// Event returns an event that is always eligible and has no effect.
func Event(id int, text string) *ir.Event {
	return &ir.Event{
		ID:      id,
		Text:    text,
		Include: condition.True,
		Exclude: condition.False,
	}
}

// Dies sets e to end the life and returns it.
func Dies(e *ir.Event) *ir.Event {
	e.Life = ir.LifeDie
	return e
}

// Branch appends a branch to e and returns it.
func Branch(e *ir.Event, cond string, target int) *ir.Event {
	e.Branches = append(e.Branches, ir.Branch{Condition: Cond(cond), EventID: target})
	return e
}

// Achievement returns an achievement of phase guarded by cond.
func Achievement(id int, phase ir.Opportunity, cond string) *ir.Achievement {
	return &ir.Achievement{
		ID:          id,
		Name:        "achievement",
		Opportunity: phase,
		Condition:   Cond(cond),
	}
}

// Lifespan returns tables in which a life lasts exactly years ticks after
// birth: one neutral event for ages 0 to years-2 and a fatal event at
// age years-1. Event ids are 100+age.
func Lifespan(years int) *Builder {
	b := NewBuilder()
	for age := 0; age < years; age++ {
		ev := Event(100+age, "year")
		if age == years-1 {
			Dies(ev)
		}
		b.AddEvent(ev).Age(age, ev.ID)
	}
	return b
}
