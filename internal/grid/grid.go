// Package grid describes a day by hour matrix of cells without any notion of colors,
// labels or layout. Every heatmap variant builds its grid through Build.
package grid

import (
	"math"

	"github.com/OldStager01/pool-occupancy/pkg/models"
)

// CellFunc produces the data of one cell.
type CellFunc func(day models.Day, hour int) models.CellData

type Cell struct {
	Hour int             `json:"hour"`
	Data models.CellData `json:"data"`
}

type Row struct {
	Day   models.Day `json:"day"`
	Cells []Cell     `json:"cells"`
}

type Grid struct {
	Hours       []int `json:"hours"`
	Rows        []Row `json:"rows"`
	HasExtraRow bool  `json:"has_extra_row"`
}

// Build calls cellFn exactly once per (day, hour) pair, day-major then hour-minor.
// Extra rows are kept only when hasExtraRow is set.
func Build(days []models.Day, hours []int, cellFn CellFunc, hasExtraRow bool) Grid {
	g := Grid{
		Hours:       append([]int(nil), hours...),
		Rows:        make([]Row, 0, len(days)),
		HasExtraRow: hasExtraRow,
	}

	for _, day := range days {
		row := Row{Day: day, Cells: make([]Cell, 0, len(hours))}
		for _, hour := range hours {
			data := cellFn(day, hour)
			if !hasExtraRow {
				data.ExtraRow = nil
			} else if data.ExtraRow != nil {
				extra := *data.ExtraRow
				extra.FillRatio = clampRatio(extra.FillRatio)
				data.ExtraRow = &extra
			}
			row.Cells = append(row.Cells, Cell{Hour: hour, Data: data})
		}
		g.Rows = append(g.Rows, row)
	}

	return g
}

// Cell returns the cell at (day, hour), if present.
func (g Grid) Cell(day models.Day, hour int) (models.CellData, bool) {
	for _, row := range g.Rows {
		if row.Day != day {
			continue
		}
		for _, c := range row.Cells {
			if c.Hour == hour {
				return c.Data, true
			}
		}
	}
	return models.CellData{}, false
}

func clampRatio(r float64) float64 {
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
