package tui

import (
	"fmt"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"perdiag/internal/geom"
)

// maxTableRows caps the pairs table; the diagram itself is not capped.
const maxTableRows = 5000

var pairColumns = []table.Column{
	{Title: "#", Width: 6},
	{Title: "x", Width: 10},
	{Title: "birth", Width: 10},
	{Title: "death", Width: 10},
	{Title: "persistence", Width: 12},
	{Title: "types", Width: 7},
}

// refreshPairsTable lists the pairs that pass the current filters.
func (m *Model) refreshPairsTable() {
	pts, err := m.ctrl.FilteredPoints()
	if err != nil {
		m.setError("pairs: " + err.Error())
		return
	}
	m.tbl.SetRows(pairRows(pts))
	if len(pts) > maxTableRows {
		m.setStatus(fmt.Sprintf("pairs table shows %d of %d", maxTableRows, len(pts)))
	}
}

func pairRows(pts []geom.PointPair) []table.Row {
	n := min(len(pts), maxTableRows)
	rows := make([]table.Row, 0, n)
	for i, p := range pts[:n] {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			fmtNum(p.Lower().X),
			fmtNum(p.Lower().Y),
			fmtNum(p.Upper().Y),
			fmtNum(p.Persistence()),
			fmtTypes(p),
		})
	}
	return rows
}

func fmtNum(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

func fmtTypes(p geom.PointPair) string {
	if p.CriticalTypeLower() == geom.NoCriticalType && p.CriticalTypeUpper() == geom.NoCriticalType {
		return "-"
	}
	return fmt.Sprintf("%d/%d", p.CriticalTypeLower(), p.CriticalTypeUpper())
}
