package mirror

import "sync"

// RequestRegionFunc is called whenever the visible viewport changes,
// asking the transport layer to send a TableModelSetRegion request for
// the new bounds.
type RequestRegionFunc func(handle uint32, colMin, colMax, rowMin, rowMax int)

// MirrorTableModel is the client-side shadow of a server table model:
// column headers, a row count, and a sparse cell cache scoped to the
// currently requested viewport. Cells outside the current region are
// discarded as soon as the viewport moves.
type MirrorTableModel struct {
	mu            sync.RWMutex
	handle        uint32
	columnHeaders []string
	rowCount      int
	cells         map[[2]int]string

	colMin, colMax, rowMin, rowMax int
	hasRegion                      bool

	requestRegion RequestRegionFunc
}

func newMirrorTableModel(handle uint32, columnHeaders []string, rowCount int, requestRegion RequestRegionFunc) *MirrorTableModel {
	return &MirrorTableModel{
		handle:        handle,
		columnHeaders: columnHeaders,
		rowCount:      rowCount,
		cells:         make(map[[2]int]string),
		requestRegion: requestRegion,
	}
}

// Handle returns the client-local handle this mirror is keyed by.
func (m *MirrorTableModel) Handle() uint32 { return m.handle }

// ColumnHeaders returns the currently cached column headers.
func (m *MirrorTableModel) ColumnHeaders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.columnHeaders))
	copy(out, m.columnHeaders)
	return out
}

// RowCount returns the currently cached row count.
func (m *MirrorTableModel) RowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowCount
}

// CellText returns the cached text for (column, row), or "" and false
// if it falls outside the current viewport or hasn't arrived yet.
func (m *MirrorTableModel) CellText(column, row int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.cells[[2]int{column, row}]
	return text, ok
}

// SetViewport is called by the UI layer when the visible scroll
// region changes. It requests the new region from the server and
// drops any cached cells now outside it.
func (m *MirrorTableModel) SetViewport(colMin, colMax, rowMin, rowMax int) {
	m.mu.Lock()
	m.colMin, m.colMax, m.rowMin, m.rowMax = colMin, colMax, rowMin, rowMax
	m.hasRegion = true
	for key := range m.cells {
		if key[0] < colMin || key[0] > colMax || key[1] < rowMin || key[1] > rowMax {
			delete(m.cells, key)
		}
	}
	fn := m.requestRegion
	handle := m.handle
	m.mu.Unlock()

	if fn != nil {
		fn(handle, colMin, colMax, rowMin, rowMax)
	}
}

func (m *MirrorTableModel) applyColumnHeaders(headers []string) {
	m.mu.Lock()
	m.columnHeaders = headers
	m.mu.Unlock()
}

func (m *MirrorTableModel) applyRowCount(count int) {
	m.mu.Lock()
	m.rowCount = count
	m.mu.Unlock()
}

// applyUpdateRegion stores incoming cells, discarding any that fall
// outside the viewport the client has most recently requested (a
// reply to a now-superseded region request that crosses in flight
// with a newer SetViewport call).
func (m *MirrorTableModel) applyUpdateRegion(colMin, colMax, rowMin, rowMax int, cells map[[2]int]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasRegion && (colMin > m.colMax || colMax < m.colMin || rowMin > m.rowMax || rowMax < m.rowMin) {
		return
	}
	for key, text := range cells {
		if m.hasRegion && (key[0] < m.colMin || key[0] > m.colMax || key[1] < m.rowMin || key[1] > m.rowMax) {
			continue
		}
		m.cells[key] = text
	}
}
