package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
)

// ANSI sequences for rarity colouring.
const (
	formatReset       = "\033[0m"
	formatLightBlue   = "\033[94m"
	formatLightPurple = "\033[95m"
	formatLightYellow = "\033[93m"
)

var rarityFormats = map[ir.Rarity]string{
	ir.Common:    formatReset,
	ir.Uncommon:  formatLightBlue,
	ir.Rare:      formatLightPurple,
	ir.Legendary: formatLightYellow,
}

// runeWidth is the number of terminal cells r occupies.
func runeWidth(r rune) int {
	if r == 0x0e || r == 0x0f || unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf) {
		return 0
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// StrWidth returns the display width of s in terminal cells.
func StrWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

// Pad right-pads s with spaces to n cells. Wider strings are unchanged.
func Pad(s string, n int) string {
	return s + strings.Repeat(" ", max(n-StrWidth(s), 0))
}

// Renderer writes human-readable run output.
type Renderer struct {
	w     io.Writer
	color bool
}

// NewRenderer returns a renderer writing to w. color enables ANSI rarity
// colours.
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

// rarity wraps s in the colour of r.
func (r *Renderer) rarity(rar ir.Rarity, s string) string {
	if !r.color {
		return s
	}
	return rarityFormats[rar] + s + formatReset
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// name normalises a display name to NFC before padding.
func name(s string) string { return norm.NFC.String(s) }

// Header prints a section banner.
func (r *Renderer) Header(title string) {
	r.printf("---- %s ----\n", title)
}

// Stats prints the five attributes on one line.
func (r *Renderer) Stats(s ir.Stats) {
	r.printf("CHR %d INT %d STR %d MNY %d SPR %d\n", s.Charm, s.Intelligence, s.Strength, s.Money, s.Spirit)
}

// TalentLine prints one talent with a fixed-width name column.
func (r *Renderer) TalentLine(prefix string, t *ir.Talent, nameWidth int) {
	r.printf("%s%s - %s\n", prefix, r.rarity(t.Rarity, Pad(name(t.Name), nameWidth)), t.Description)
}

// Talents prints the selection and, under each talent a replacement
// swapped out, its substitute.
func (r *Renderer) Talents(selected, active []*ir.Talent) {
	r.Header("Talents")
	for i, t := range selected {
		r.TalentLine("", t, 15)
		if i < len(active) && active[i] != t {
			r.TalentLine("-> ", active[i], 12)
		}
	}
}

// Tick prints one year of a life.
func (r *Renderer) Tick(t engine.Tick) {
	if t.Age == -1 {
		r.Header("Birth")
	} else {
		r.Header(fmt.Sprintf("Age %d", t.Age))
	}
	r.Stats(t.Stats)
	for _, tal := range t.Talents {
		r.printf("%s\n", r.rarity(tal.Rarity, fmt.Sprintf("Talent %s activated: %s", name(tal.Name), tal.Description)))
	}
	for _, step := range t.Events {
		text := step.Event.Text
		if !step.HasNext && step.Event.Post != "" {
			text += "\n" + step.Event.Post
		}
		r.printf("%s\n", r.rarity(step.Event.Rarity, text))
	}
	r.achievements(t.Achievements)
}

func (r *Renderer) achievements(as []*ir.Achievement) {
	for _, a := range as {
		r.printf("%s\n", r.rarity(a.Rarity, fmt.Sprintf("Achievement unlocked %s: %s", name(a.Name), a.Description)))
	}
}

// Summary prints the end-of-run judgments.
func (r *Renderer) Summary(s *engine.Summary) {
	r.Header("Summary")
	r.achievements(s.Achievements)
	titles := map[string]string{
		"age":          "Lifespan",
		"charm":        "Charm",
		"intelligence": "Intelligence",
		"strength":     "Strength",
		"money":        "Money",
		"spirit":       "Spirit",
		"overall":      "Overall",
	}
	for _, j := range s.Judgments {
		r.printf("%s %d - %s\n", Pad(titles[j.Quantity]+":", 14), j.Value, r.rarity(j.Grade.Rarity, j.Grade.Label))
	}
}

// Character prints a selectable character with its talents.
func (r *Renderer) Character(i int, c *ir.Character, tables *ir.Tables) {
	r.printf("%d: %s\n", i, name(c.Name))
	r.printf("CHR %d INT %d STR %d MNY %d\n", c.Charm, c.Intelligence, c.Strength, c.Money)
	for _, id := range c.Talents {
		if t, ok := tables.Talent(id); ok {
			r.TalentLine("- ", t, 12)
		}
	}
}

// Statistics prints every achievement with its unlock mark, then the
// cross-run judgments. Hidden achievements stay masked until unlocked.
func (r *Renderer) Statistics(stats *ir.Statistics, tables *ir.Tables, report engine.Report) {
	r.Header("Achievements & Statistics")
	for _, a := range tables.Achievements {
		granted := stats.Achievements.Has(a.ID)
		mark, title, desc := "✗", name(a.Name), a.Description
		if granted {
			mark = "✓"
		}
		if a.Hidden && !granted {
			title, desc = "???", "Hidden achievement"
		}
		r.printf("%s %s - %s\n", mark, r.rarity(a.Rarity, Pad(title, 14)), desc)
	}
	j := report.FinishedGames
	r.printf("Finished games: %3d - %s\n", j.Value, r.rarity(j.Grade.Rarity, j.Grade.Label))
	j = report.Achievements
	r.printf("Achievements:   %3d - %s\n", j.Value, r.rarity(j.Grade.Rarity, j.Grade.Label))
	j = report.EventPercentage
	r.printf("Events seen:    %s\n", r.rarity(j.Grade.Rarity, fmt.Sprintf("%3d%%", j.Value)))
	j = report.TalentPercentage
	r.printf("Talents played: %s\n", r.rarity(j.Grade.Rarity, fmt.Sprintf("%3d%%", j.Value)))
}
