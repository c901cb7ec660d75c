package app

import (
	"time"

	"gotercih/domain/datareadiness/ingestion"

	"github.com/montanaflynn/stats"
)

// EstimateStats describes the distribution of defined estimates
type EstimateStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is an overview of the loaded catalog
type Summary struct {
	Revision   string               `json:"revision"`
	LoadedAt   time.Time            `json:"loaded_at"`
	Source     string               `json:"source"`
	Total      int                  `json:"total"`
	Estimated  int                  `json:"estimated"`
	Undefined  int                  `json:"undefined"`
	Estimates  *EstimateStats       `json:"estimates,omitempty"`
	GroupField string               `json:"group_field,omitempty"`
	Groups     map[string]int       `json:"groups,omitempty"`
	Report     ingestion.LoadReport `json:"report"`
}

// Summary computes counts and estimate statistics for the current snapshot.
// Groups counts schools per value of the first category field.
func (s *CatalogService) Summary() (*Summary, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Revision: snap.Revision,
		LoadedAt: snap.LoadedAt,
		Source:   snap.Source,
		Total:    len(snap.Schools),
		Report:   snap.Report,
	}

	values := make([]float64, 0, len(snap.Schools))
	for i := range snap.Schools {
		if e := snap.Schools[i].Estimate; e.Defined {
			values = append(values, e.Value)
		}
	}
	sum.Estimated = len(values)
	sum.Undefined = sum.Total - sum.Estimated
	if len(values) > 0 {
		sum.Estimates = describe(values)
	}

	if fields := snap.Schema.CategoryFields; len(fields) > 0 {
		sum.GroupField = fields[0]
		sum.Groups = make(map[string]int)
		for i := range snap.Schools {
			if v := snap.Schools[i].Attribute(sum.GroupField); v != "" {
				sum.Groups[v]++
			}
		}
	}
	return sum, nil
}

func describe(values []float64) *EstimateStats {
	data := stats.Float64Data(values)
	mean, _ := data.Mean()
	median, _ := data.Median()
	lowest, _ := data.Min()
	highest, _ := data.Max()
	return &EstimateStats{
		Mean:   round2(mean),
		Median: round2(median),
		Min:    lowest,
		Max:    highest,
	}
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
