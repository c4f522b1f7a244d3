package models

// CellData describes one rendered heatmap cell. It is recomputed on every request.
type CellData struct {
	Color       string    `json:"color"`
	DisplayText string    `json:"display_text"`
	Title       string    `json:"title"`
	ExtraRow    *ExtraRow `json:"extra_row,omitempty"`
}

// ExtraRow is the secondary annotation drawn under a cell.
type ExtraRow struct {
	Text      string  `json:"text"`
	FillRatio float64 `json:"fill_ratio"`
}
