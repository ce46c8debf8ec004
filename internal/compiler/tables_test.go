package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

const sampleTables = `
talent: {
	"1001": {
		name:        "Lucky"
		description: "Fortune smiles"
		rarity:      "rare"
		points:      1
		effect: {money: 2}
		condition:   "AGE>=10"
		exclude: [1003, 1002]
		max_execute: 2
	}
	"1002": {
		name:   "Gambler"
		rarity: 0
		random: 4
		replacement: rarity: {rare: 1, legendary: 0.5}
	}
	"1003": {
		name:      "Chosen"
		rarity:    "legendary"
		exclusive: true
		replacement: talent: {"1001": 2}
	}
}

event: {
	"10001": {
		text: "You were born."
		effect: {charm: 1}
		branch: [{condition: "CHR>0", event: 10002}]
	}
	"10002": {
		text:      "You smiled."
		post:      "Everyone laughed."
		no_random: true
		life:      -1
		age:       2
		include:   "AGE>0"
		exclude:   ""
	}
}

achievement: {
	"1": {name: "Born", opportunity: "start", condition: "AGE=-1"}
	"2": {name: "Scored", opportunity: "END", condition: "SUM>10", hidden: true, rarity: "rare"}
}

age: {
	"0": {"10001": 1}
	"1": {"10001": 1, "10002": 0.5}
}

character: {
	"1": {name: "Ada", talents: [1001], charm: 3, intelligence: 9, strength: 2, money: 4}
}
`

func compileSample(t *testing.T) *ir.Tables {
	t.Helper()
	tables, errs := CompileString(sampleTables, LoadModeCollectAll)
	require.Empty(t, errs)
	return tables
}

func TestCompileTables(t *testing.T) {
	tables := compileSample(t)

	require.Len(t, tables.Talents, 3)
	lucky := tables.Talents[1001]
	assert.Equal(t, "Lucky", lucky.Name)
	assert.Equal(t, ir.Rare, lucky.Rarity)
	assert.Equal(t, ir.Stats{Money: 2}, lucky.Effect)
	assert.Equal(t, []int{1002, 1003}, lucky.Exclude)
	assert.Equal(t, 2, lucky.MaxExecute)
	assert.Equal(t, "AGE>=10", lucky.Condition.String())

	gambler := tables.Talents[1002]
	assert.Equal(t, 1, gambler.MaxExecute, "max_execute defaults to 1")
	assert.Equal(t, condition.True, gambler.Condition)
	assert.Equal(t, 4, gambler.Random)
	require.NotNil(t, gambler.Replace)
	assert.Equal(t, ir.ReplaceByRarity, gambler.Replace.Kind)
	assert.Equal(t, []ir.RarityWeight{{Rarity: ir.Rare, Weight: 1}, {Rarity: ir.Legendary, Weight: 0.5}}, gambler.Replace.Rarities)

	chosen := tables.Talents[1003]
	assert.True(t, chosen.Exclusive)
	assert.Equal(t, []ir.IDWeight{{ID: 1001, Weight: 2}}, chosen.Replace.Talents)
}

func TestCompileEvents(t *testing.T) {
	tables := compileSample(t)

	born := tables.Events[10001]
	assert.Equal(t, condition.True, born.Include)
	assert.Equal(t, condition.False, born.Exclude)
	require.Len(t, born.Branches, 1)
	assert.Equal(t, 10002, born.Branches[0].EventID)
	assert.Equal(t, "CHR>0", born.Branches[0].Condition.String())

	smiled := tables.Events[10002]
	assert.Equal(t, ir.LifeDie, smiled.Life)
	assert.Equal(t, 2, smiled.Age)
	assert.True(t, smiled.NoRandom)
	assert.Equal(t, condition.False, smiled.Exclude, "blank exclude is false")
	assert.Equal(t, "Everyone laughed.", smiled.Post)
}

func TestCompileAchievementsKeepOrder(t *testing.T) {
	tables := compileSample(t)

	require.Len(t, tables.Achievements, 2)
	assert.Equal(t, 1, tables.Achievements[0].ID)
	assert.Equal(t, ir.OpportunityStart, tables.Achievements[0].Opportunity)
	assert.True(t, tables.Achievements[1].Hidden)
	assert.Equal(t, ir.OpportunityEnd, tables.Achievements[1].Opportunity)
}

func TestCompileAgesAndCharacters(t *testing.T) {
	tables := compileSample(t)

	assert.Equal(t, []ir.AgeEntry{{EventID: 10001, Weight: 1}, {EventID: 10002, Weight: 0.5}}, tables.Ages[1])
	require.Len(t, tables.Characters, 1)
	assert.Equal(t, "Ada", tables.Characters[0].Name)
	assert.Equal(t, 9, tables.Characters[0].Intelligence)
	assert.Len(t, tables.Digest, 64)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"bad condition", `talent: "1": {name: "x", condition: "AGE>>1"}`, ErrCondition},
		{"bad branch condition", `event: "1": {branch: [{condition: "(", event: 1}]}`, ErrCondition},
		{"missing name", `talent: "1": {rarity: "rare"}`, ErrCodeEntry},
		{"bad rarity", `talent: "1": {name: "x", rarity: "epic"}`, ErrCodeEntry},
		{"bad id", `event: "abc": {text: "x"}`, ErrCodeEntry},
		{"bad life", `event: "1": {life: 2}`, ErrCodeEntry},
		{"bad opportunity", `achievement: "1": {name: "x", opportunity: "LATER"}`, ErrCodeEntry},
		{"branch without target", `event: "1": {branch: [{condition: "AGE>1"}]}`, ErrCodeEntry},
		{"empty replacement", `talent: "1": {name: "x", replacement: {}}`, ErrCodeEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := CompileString(tt.src, LoadModeFailFast)
			require.Len(t, errs, 1)
			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestCompileCollectAll(t *testing.T) {
	src := `
talent: "1": {name: "x", condition: "("}
talent: "2": {name: "y", condition: ")"}
`
	_, errs := CompileString(src, LoadModeCollectAll)
	assert.Len(t, errs, 2)

	_, errs = CompileString(src, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestCompileTalentDirect(t *testing.T) {
	v := cuecontext.New().CompileString(`talent: "1001": { name: "Lucky", rarity: "rare" }`)
	talent, err := CompileTalent(v.LookupPath(cue.ParsePath(`talent."1001"`)))
	require.NoError(t, err)
	assert.Equal(t, 1001, talent.ID)
}

func TestLoadDirMissing(t *testing.T) {
	_, errs := LoadDir("/nonexistent/data", LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNotFound)

	_, errs = LoadDir(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNoFiles)
}
