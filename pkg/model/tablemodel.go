package model

import "sync"

// Region describes the rectangular window of rows and columns a
// client has subscribed to. Cells outside the region are not
// maintained on the client's behalf.
type Region struct {
	ColumnMin, ColumnMax int
	RowMin, RowMax       int
}

// Contains reports whether (col, row) falls inside the region.
func (r Region) Contains(col, row int) bool {
	return col >= r.ColumnMin && col <= r.ColumnMax && row >= r.RowMin && row <= r.RowMax
}

// CellTextFunc returns the display text for a cell, mirroring the
// reference client's ConsoleTableModel::getText override.
type CellTextFunc func(column, row int) string

// TableModel is a paged projection over a list-like object (e.g. the
// active log, a decoder roster). Multiple sessions may subscribe
// independently, each with its own region; a region update for one
// subscriber never touches another's window.
type TableModel struct {
	mu sync.RWMutex

	columnHeaders []string
	rowCount      int
	cellText      CellTextFunc

	nextSub       uint64
	columnSubs    map[uint64]func([]string)
	rowCountSubs  map[uint64]func(int)
}

// NewTableModel creates a table model with the given column headers
// and cell-text provider.
func NewTableModel(columnHeaders []string, cellText CellTextFunc) *TableModel {
	return &TableModel{
		columnHeaders: append([]string(nil), columnHeaders...),
		cellText:      cellText,
		columnSubs:    make(map[uint64]func([]string)),
		rowCountSubs:  make(map[uint64]func(int)),
	}
}

// ColumnHeaders returns the current column header list.
func (t *TableModel) ColumnHeaders() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.columnHeaders...)
}

// SetColumnHeaders replaces the column headers and notifies every
// subscriber.
func (t *TableModel) SetColumnHeaders(headers []string) {
	t.mu.Lock()
	t.columnHeaders = append([]string(nil), headers...)
	subs := snapshotColumnSubs(t.columnSubs)
	t.mu.Unlock()
	for _, cb := range subs {
		cb(headers)
	}
}

// RowCount returns the current row count.
func (t *TableModel) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowCount
}

// SetRowCount updates the row count and notifies every subscriber.
// Subscribers whose region now exceeds the new row count are
// responsible for re-requesting a valid region.
func (t *TableModel) SetRowCount(count int) {
	t.mu.Lock()
	if t.rowCount == count {
		t.mu.Unlock()
		return
	}
	t.rowCount = count
	subs := snapshotRowCountSubs(t.rowCountSubs)
	t.mu.Unlock()
	for _, cb := range subs {
		cb(count)
	}
}

// CellText computes the display text for a single cell on demand.
func (t *TableModel) CellText(column, row int) string {
	t.mu.RLock()
	fn := t.cellText
	t.mu.RUnlock()
	if fn == nil {
		return ""
	}
	return fn(column, row)
}

// SubscribeColumnHeaders registers a callback for column-header
// changes and returns a token for Unsubscribe.
func (t *TableModel) SubscribeColumnHeaders(fn func([]string)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSub++
	tok := t.nextSub
	t.columnSubs[tok] = fn
	return tok
}

// UnsubscribeColumnHeaders removes a previously registered callback.
func (t *TableModel) UnsubscribeColumnHeaders(token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.columnSubs, token)
}

// SubscribeRowCount registers a callback for row-count changes and
// returns a token for Unsubscribe.
func (t *TableModel) SubscribeRowCount(fn func(int)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSub++
	tok := t.nextSub
	t.rowCountSubs[tok] = fn
	return tok
}

// UnsubscribeRowCount removes a previously registered callback.
func (t *TableModel) UnsubscribeRowCount(token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rowCountSubs, token)
}

// Cells computes the cell text for every position in region, used by
// a session whenever its client sets a new region.
func (t *TableModel) Cells(region Region) map[[2]int]string {
	t.mu.RLock()
	fn := t.cellText
	t.mu.RUnlock()

	cells := make(map[[2]int]string)
	if fn == nil {
		return cells
	}
	for row := region.RowMin; row <= region.RowMax; row++ {
		for col := region.ColumnMin; col <= region.ColumnMax; col++ {
			cells[[2]int{col, row}] = fn(col, row)
		}
	}
	return cells
}

func snapshotColumnSubs(m map[uint64]func([]string)) []func([]string) {
	out := make([]func([]string), 0, len(m))
	for _, cb := range m {
		out = append(out, cb)
	}
	return out
}

func snapshotRowCountSubs(m map[uint64]func(int)) []func(int) {
	out := make([]func(int), 0, len(m))
	for _, cb := range m {
		out = append(out, cb)
	}
	return out
}
