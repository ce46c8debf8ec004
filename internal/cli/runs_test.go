package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/testutil"
)

// seededDB returns a database holding two simulated runs.
func seededDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "relive.db")
	_, err := simulate(t, "--db", db, "--seed", "1", "--talents", "1001,1002,1141", "--stats", "1,2,7,10")
	require.NoError(t, err)
	_, err = simulate(t, "--db", db, "--seed", "2", "--talents", "1002,1003,1144", "--stats", "10,10,1,0")
	require.NoError(t, err)
	return db
}

func listRuns(t *testing.T, db string, args ...string) ([]RunRow, error) {
	t.Helper()
	out, err := execute(t, NewRunsCommand(jsonOpts()), "", append([]string{"--db", db}, args...)...)
	if err != nil {
		return nil, err
	}
	var rows []RunRow
	decodeData(t, out, &rows)
	return rows, nil
}

func TestRunsList(t *testing.T) {
	db := seededDB(t)

	rows, err := listRuns(t, db)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Seq)
	assert.Equal(t, int64(2), rows[1].Seq)
	assert.Equal(t, []int{1001, 1002, 1141}, rows[0].Selected)
	require.NotNil(t, rows[0].MaxAge)
	assert.Equal(t, 2, *rows[0].MaxAge)
	assert.Equal(t, 4, rows[0].Ticks)
}

func TestRunsWhere(t *testing.T) {
	db := seededDB(t)

	tests := []struct {
		where string
		seeds []int64
	}{
		{"HAGE=2", []int64{1, 2}},
		{"HAGE>50", nil},
		{"TLT?[1001]", []int64{1}},
		{"HSTR>7", []int64{1}},
		{"EVT?[10003]", []int64{1}},
		{"CHR>9|INT>9", []int64{2}},
		{"AACH?[3]&SUM>0", []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			rows, err := listRuns(t, db, "--where", tt.where)
			require.NoError(t, err)
			var seeds []int64
			for _, r := range rows {
				seeds = append(seeds, r.Seed)
			}
			assert.Equal(t, tt.seeds, seeds)
		})
	}
}

func TestRunsWhereErrors(t *testing.T) {
	db := seededDB(t)

	_, err := listRuns(t, db, "--where", "AGE>>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --where")

	_, err = listRuns(t, db, "--where", "ATLT?[1001]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot evaluate")
}

func TestRunsWhereVerboseShowsPrefilter(t *testing.T) {
	db := seededDB(t)

	opts := textOpts()
	opts.Verbose = true
	cmd := NewRunsCommand(opts)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--db", db, "--where", "HAGE==2&EVT?[10003]"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "where HAGE=2&EVT?[10003]")
	assert.Contains(t, errOut.String(), "r.max_age IS NULL OR r.max_age = ?")
	assert.Contains(t, out.String(), "SEQ")
}

func TestRunsText(t *testing.T) {
	out, err := execute(t, NewRunsCommand(textOpts()), "", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")

	db := seededDB(t)
	out, err = execute(t, NewRunsCommand(textOpts()), "", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "OVERALL")
}

func TestRunEnv(t *testing.T) {
	rec := &ir.RunRecord{
		Active: []int{1001},
		Start:  ir.Stats{Charm: 1, Strength: 5},
		Ticks: []ir.TickRecord{
			{Age: -1, Stats: ir.Stats{Charm: 1, Strength: 5}},
			{Age: 0, Events: []ir.EventStep{{ID: 10001}}, Stats: ir.Stats{Charm: 2, Strength: 3}},
			{Age: 1, Events: []ir.EventStep{{ID: 10002, HasNext: true}, {ID: 10003}}, Achievements: []int{2}, Stats: ir.Stats{Charm: 0, Strength: 4}},
		},
	}
	env, err := RunEnv(rec)
	require.NoError(t, err)

	get := func(name string) int {
		v, ok := env.Lookup(name)
		require.True(t, ok, name)
		return v.Int()
	}
	assert.Equal(t, 1, get(ir.VarAge))
	assert.Equal(t, 1, get(ir.VarMaxAge))
	assert.Equal(t, 2, get(ir.VarMaxCharm))
	assert.Equal(t, 0, get(ir.VarMinCharm))
	assert.Equal(t, 5, get(ir.VarMaxStr))
	assert.Equal(t, 3, get(ir.VarMinStr))
	assert.Equal(t, 1, get(ir.VarAchieveCount))

	evt, ok := env.Lookup(ir.VarRunEvents)
	require.True(t, ok)
	assert.ElementsMatch(t, []int{10001, 10002, 10003}, evt.Members())

	_, ok = env.Lookup(ir.VarOverall)
	assert.False(t, ok, "SUM is only bound for ended runs")
}

func TestRunEnvMatchesEngine(t *testing.T) {
	gloomy := testutil.Talent(1, "Gloomy")
	gloomy.Effect = ir.Stats{Charm: -3}
	tables := testutil.Lifespan(3).AddTalent(gloomy).Build()

	cfg := config.Default()
	cfg.Talent.Pinned = nil
	before := ir.NewStatistics()
	before.Achievements.Add(77)
	e := engine.New(tables, cfg, before, engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-env")))
	seed := int64(3)
	e.Seed(&seed)
	e.SetTalents([]*ir.Talent{gloomy})
	e.SetStats(5, 4, 3, 2)
	for _, err := range e.Progress() {
		require.NoError(t, err)
	}
	_, err := e.End()
	require.NoError(t, err)
	rec, err := e.Record()
	require.NoError(t, err)

	env, err := RunEnv(rec)
	require.NoError(t, err)
	for _, name := range []string{
		ir.VarAge, ir.VarCharm, ir.VarIntel, ir.VarStr, ir.VarMoney, ir.VarSpirit,
		ir.VarMaxAge, ir.VarMaxCharm, ir.VarMaxIntel, ir.VarMaxStr, ir.VarMaxMoney, ir.VarMaxSpirit,
		ir.VarMinCharm, ir.VarMinIntel, ir.VarMinStr, ir.VarMinMoney, ir.VarMinSpirit,
		ir.VarAchieveCount,
	} {
		want, ok := e.Env().Lookup(name)
		require.True(t, ok, name)
		got, ok := env.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want.Int(), got.Int(), name)
	}

	ok, err := testutil.Cond("HCHR>=5&LCHR=2&AACH?[77]").Eval(env)
	require.NoError(t, err)
	assert.True(t, ok, "peak charm is the starting value")
}

func TestRunEnvWithoutTicks(t *testing.T) {
	_, err := RunEnv(&ir.RunRecord{ID: "empty", Ticks: []ir.TickRecord{}})
	assert.ErrorContains(t, err, "run empty has no ticks")
}
