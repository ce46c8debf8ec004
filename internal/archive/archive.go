package archive

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/relive/internal/ir"
)

//go:embed statistics.schema.json
var schemaSource string

const schemaURL = "relive://statistics.schema.json"

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaSource)
	})
	return schema, schemaErr
}

// document is the flat on-disk layout of Statistics.
type document struct {
	InheritedTalent    int    `json:"inherited_talent"`
	FinishedGames      int    `json:"finished_games"`
	Talents            []int  `json:"talents"`
	Events             []int  `json:"events"`
	Achievements       []int  `json:"achievements"`
	UniqueSeed         *int64 `json:"unique_seed"`
	UniqueName         string `json:"unique_name"`
	UniqueTalents      []int  `json:"unique_talents"`
	UniqueCharm        int    `json:"unique_charm"`
	UniqueIntelligence int    `json:"unique_intelligence"`
	UniqueStrength     int    `json:"unique_strength"`
	UniqueMoney        int    `json:"unique_money"`
}

func fromStatistics(s *ir.Statistics) document {
	d := document{
		InheritedTalent: s.InheritedTalent,
		FinishedGames:   s.FinishedGames,
		Talents:         s.Talents.Sorted(),
		Events:          s.Events.Sorted(),
		Achievements:    s.Achievements.Sorted(),
		UniqueTalents:   []int{},
	}
	if d.Talents == nil {
		d.Talents = []int{}
	}
	if d.Events == nil {
		d.Events = []int{}
	}
	if d.Achievements == nil {
		d.Achievements = []int{}
	}
	if u := s.Unique; u != nil {
		seed := u.Seed
		d.UniqueSeed = &seed
		d.UniqueName = u.Name
		if u.Talents != nil {
			d.UniqueTalents = slices.Clone(u.Talents)
		}
		d.UniqueCharm = u.Charm
		d.UniqueIntelligence = u.Intelligence
		d.UniqueStrength = u.Strength
		d.UniqueMoney = u.Money
	}
	return d
}

func (d document) statistics() *ir.Statistics {
	s := &ir.Statistics{
		InheritedTalent: d.InheritedTalent,
		FinishedGames:   d.FinishedGames,
		Talents:         ir.NewIDSet(d.Talents...),
		Events:          ir.NewIDSet(d.Events...),
		Achievements:    ir.NewIDSet(d.Achievements...),
	}
	// The unique character exists exactly when its seed was recorded.
	if d.UniqueSeed != nil {
		talents := d.UniqueTalents
		if talents == nil {
			talents = []int{}
		}
		s.Unique = &ir.Character{
			Seed:         *d.UniqueSeed,
			Name:         d.UniqueName,
			Talents:      talents,
			Charm:        d.UniqueCharm,
			Intelligence: d.UniqueIntelligence,
			Strength:     d.UniqueStrength,
			Money:        d.UniqueMoney,
		}
	}
	return s
}

// Export writes stats to w as a zstd-compressed archive.
func Export(w io.Writer, stats *ir.Statistics) error {
	if stats == nil {
		return fmt.Errorf("export: nil statistics")
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(fromStatistics(stats)); err != nil {
		enc.Close()
		return fmt.Errorf("export: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// ExportJSON writes stats as plain indented JSON.
func ExportJSON(w io.Writer, stats *ir.Statistics) error {
	if stats == nil {
		return fmt.Errorf("export: nil statistics")
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(fromStatistics(stats))
}

// ValidationError reports a document that does not match the archive schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "import: invalid archive: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Import reads an archive written by Export, or the same document without
// compression, and returns the statistics it holds.
func Import(r io.Reader) (*ir.Statistics, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("import: %w", err)
	}

	var data []byte
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
		defer dec.Close()
		data, err = io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("import: decompress: %w", err)
		}
	} else {
		data, err = io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
	}
	return decode(data)
}

func decode(data []byte) (*ir.Statistics, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("import: schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("import: parse: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return nil, &ValidationError{Err: err}
	}

	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("import: decode: %w", err)
	}
	return d.statistics(), nil
}
