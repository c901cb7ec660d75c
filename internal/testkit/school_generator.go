package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"gotercih/domain/dataset"
)

// Column names of the generated tables, matching the LGS cutoff files
const (
	ColumnName       = "OKUL ADI"
	ColumnDistrict   = "İLÇE"
	ColumnProgram    = "ALAN"
	ColumnSchoolType = "OKUL TÜRÜ"
	ColumnLanguage   = "TÜR"
)

// SchoolGeneratorConfig configures the school data generator
type SchoolGeneratorConfig struct {
	SchoolCount   int      `json:"school_count"`
	Years         []int    `json:"years"`
	Districts     []string `json:"districts"`
	Programs      []string `json:"programs"`
	SchoolTypes   []string `json:"school_types"`
	MissingRate   float64  `json:"missing_rate"`   // chance a yearly cell is blank
	MalformedRate float64  `json:"malformed_rate"` // chance a yearly cell holds text
	Seed          int64    `json:"seed"`
}

// DefaultSchoolConfig returns sensible defaults for school data generation
func DefaultSchoolConfig() SchoolGeneratorConfig {
	return SchoolGeneratorConfig{
		SchoolCount:   200,
		Years:         []int{2022, 2023, 2024},
		Districts:     []string{"Kadıköy", "Üsküdar", "Beşiktaş", "Şişli", "Çankaya"},
		Programs:      []string{"Fen", "Anadolu", "Sosyal Bilimler", "Meslek"},
		SchoolTypes:   []string{"Devlet", "Özel"},
		MissingRate:   0.1,
		MalformedRate: 0.02,
		Seed:          42,
	}
}

// SchoolDataGenerator generates synthetic percentile cutoff tables
type SchoolDataGenerator struct {
	config SchoolGeneratorConfig
	rng    *rand.Rand
}

// NewSchoolDataGenerator creates a new generator
func NewSchoolDataGenerator(config SchoolGeneratorConfig) *SchoolDataGenerator {
	return &SchoolDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers returns the generated column order
func (g *SchoolDataGenerator) Headers() []string {
	headers := []string{ColumnName, ColumnDistrict, ColumnProgram, ColumnSchoolType, ColumnLanguage}
	for _, y := range g.config.Years {
		headers = append(headers, strconv.Itoa(y))
	}
	return headers
}

// GenerateTable generates a complete table
func (g *SchoolDataGenerator) GenerateTable() *dataset.Table {
	table := &dataset.Table{
		Source:  "synthetic",
		Headers: g.Headers(),
		Rows:    make([]dataset.Row, 0, g.config.SchoolCount),
	}

	for i := 0; i < g.config.SchoolCount; i++ {
		row := dataset.Row{
			ColumnName:       fmt.Sprintf("Okul %03d", i+1),
			ColumnDistrict:   pick(g.rng, g.config.Districts),
			ColumnProgram:    pick(g.rng, g.config.Programs),
			ColumnSchoolType: pick(g.rng, g.config.SchoolTypes),
			ColumnLanguage:   pick(g.rng, []string{"İngilizce", "Almanca"}),
		}

		// a base percentile with a small yearly drift
		base := 0.5 + g.rng.Float64()*60
		drift := (g.rng.Float64() - 0.5) * 4
		for k, y := range g.config.Years {
			row[strconv.Itoa(y)] = g.cell(base + drift*float64(k))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (g *SchoolDataGenerator) cell(v float64) string {
	r := g.rng.Float64()
	switch {
	case r < g.config.MissingRate:
		return ""
	case r < g.config.MissingRate+g.config.MalformedRate:
		return "-"
	}
	v = math.Max(0.01, v)
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func pick(rng *rand.Rand, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rng.Intn(len(values))]
}

// GeneratedSource serves a synthetic table as a data source. It backs the
// demo mode when neither a data file nor a database is configured.
type GeneratedSource struct {
	config SchoolGeneratorConfig
}

// NewGeneratedSource creates a source; every read yields the same table for a seed
func NewGeneratedSource(config SchoolGeneratorConfig) *GeneratedSource {
	return &GeneratedSource{config: config}
}

// Name identifies the source
func (s *GeneratedSource) Name() string {
	return fmt.Sprintf("synthetic(seed=%d)", s.config.Seed)
}

// ReadTable generates the table
func (s *GeneratedSource) ReadTable(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table := NewSchoolDataGenerator(s.config).GenerateTable()
	table.Source = s.Name()
	table.ReadAt = time.Now()
	return table, nil
}
