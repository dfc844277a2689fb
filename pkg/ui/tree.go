// tree.go - windowed flat-list rendering of the lazy resource tree.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/warren/pkg/browse"
	"github.com/vanderheijden86/warren/pkg/metrics"
	"github.com/vanderheijden86/warren/pkg/model"
)

// rowKind distinguishes tree rows that are not plain nodes.
type rowKind int

const (
	rowNode rowKind = iota
	rowLoading
	rowError
	rowEmpty
	rowLoadMore
)

// treeRow is one visible line. Placeholder rows (loading, error, load-more)
// carry the key of the container they belong to so key handling can act on
// the right subtree.
type treeRow struct {
	kind  rowKind
	node  model.Node
	key   string
	depth int
	text  string
}

// TreeModel renders one family's browser as a navigable flat list. It owns
// only view state (cursor, scroll offset); all tree semantics live in the
// browse core.
type TreeModel struct {
	browser *browse.Browser
	theme   Theme
	rows    []treeRow
	cursor  int
	offset  int
	width   int
	height  int
}

// NewTreeModel creates a tree view over a browser.
func NewTreeModel(b *browse.Browser, theme Theme) TreeModel {
	return TreeModel{browser: b, theme: theme}
}

// SetSize updates the available dimensions for the tree view.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Browser returns the underlying browse core.
func (t *TreeModel) Browser() *browse.Browser { return t.browser }

// Rebuild reflattens the visible tree. Cheap enough to run after every
// state change; only visible rows are rendered anyway.
func (t *TreeModel) Rebuild() {
	defer metrics.Timer(metrics.TreeRebuild)()
	var selectedKey string
	if row, ok := t.SelectedRow(); ok {
		selectedKey = row.key
	}

	t.rows = t.rows[:0]
	for _, conn := range t.browser.Connections() {
		t.appendNode(conn, 0)
	}

	// Keep the cursor on the same node across rebuilds when possible.
	if selectedKey != "" {
		for i, row := range t.rows {
			if row.key == selectedKey && row.kind == rowNode {
				t.cursor = i
				break
			}
		}
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) appendNode(n model.Node, depth int) {
	t.rows = append(t.rows, treeRow{kind: rowNode, node: n, key: n.Key, depth: depth})
	if !n.Kind.CanHaveChildren() {
		return
	}

	if t.browser.Cache().State(n.Key) == browse.StateError {
		msg := t.browser.Cache().ErrorMessage(n.Key)
		t.rows = append(t.rows, treeRow{kind: rowError, key: n.Key, depth: depth + 1, text: msg})
		return
	}

	switch t.browser.ExpState(n.Key) {
	case browse.Collapsed:
		return
	case browse.Expanding:
		t.rows = append(t.rows, treeRow{kind: rowLoading, key: n.Key, depth: depth + 1})
		return
	}

	children := t.browser.Children(n.Key)
	if len(children) == 0 {
		t.rows = append(t.rows, treeRow{kind: rowEmpty, key: n.Key, depth: depth + 1})
	}
	for _, c := range children {
		t.appendNode(c, depth+1)
	}

	if s, ok := t.browser.Session(n.Key); ok && s.HasMore() {
		text := "load more"
		if s.InFlight() {
			text = "loading more…"
		}
		t.rows = append(t.rows, treeRow{kind: rowLoadMore, key: n.Key, depth: depth + 1, text: text})
	}
}

// SelectedRow returns the row under the cursor.
func (t *TreeModel) SelectedRow() (treeRow, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return treeRow{}, false
	}
	return t.rows[t.cursor], true
}

// SelectedNode returns the node under the cursor, if the cursor is on a
// plain node row.
func (t *TreeModel) SelectedNode() (model.Node, bool) {
	row, ok := t.SelectedRow()
	if !ok || row.kind != rowNode {
		return model.Node{}, false
	}
	return row.node, true
}

// MoveDown advances the cursor one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp retreats the cursor one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// PageForward moves the cursor a full page down.
func (t *TreeModel) PageForward() {
	page := t.visibleCount()
	t.cursor += page
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageBackward moves the cursor a full page up.
func (t *TreeModel) PageBackward() {
	t.cursor -= t.visibleCount()
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// GotoTop jumps to the first row.
func (t *TreeModel) GotoTop() {
	t.cursor = 0
	t.offset = 0
}

// GotoBottom jumps to the last row.
func (t *TreeModel) GotoBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) visibleCount() int {
	// One line reserved for the position indicator.
	n := t.height - 1
	if n < 1 {
		n = 1
	}
	return n
}

func (t *TreeModel) ensureCursorVisible() {
	page := t.visibleCount()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+page {
		t.offset = t.cursor - page + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

func (t *TreeModel) visibleRange() (int, int) {
	start := t.offset
	end := start + t.visibleCount()
	if end > len(t.rows) {
		end = len(t.rows)
	}
	return start, end
}

// View renders the visible window of the tree.
func (t *TreeModel) View() string {
	defer metrics.Timer(metrics.UIRender)()
	if len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i], i == t.cursor)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(t.rows) > t.visibleCount() {
		sb.WriteString(t.renderPositionIndicator(start, end))
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	title := r.NewStyle().Foreground(t.theme.Primary).Bold(true).Render("No connections")
	hint := t.theme.MutedText.Render("Add connection profiles with `warren --add-profile`.")
	return lipgloss.JoinVertical(lipgloss.Left, "", title, "", hint)
}

func (t *TreeModel) renderPositionIndicator(start, end int) string {
	indicator := fmt.Sprintf(" %d-%d of %d", start+1, end, len(t.rows))
	return t.theme.MutedText.Render(indicator)
}

func (t *TreeModel) renderRow(row treeRow, selected bool) string {
	indent := strings.Repeat("  ", row.depth)

	var line string
	switch row.kind {
	case rowLoading:
		line = indent + t.theme.MutedText.Render("… loading")
	case rowError:
		line = indent + t.theme.ErrorText.Render("✗ "+row.text)
	case rowEmpty:
		line = indent + t.theme.MutedText.Render("(empty)")
	case rowLoadMore:
		line = indent + t.theme.PrimaryBold.Render("↓ "+row.text)
	default:
		line = indent + t.renderNode(row.node)
	}

	line = truncateLine(line, t.width)
	if selected {
		line = t.theme.Selected.Render(line)
	}
	return line
}

func (t *TreeModel) renderNode(n model.Node) string {
	switch n.Kind {
	case model.KindConnection:
		return t.renderConnection(n)
	case model.KindContainer:
		return t.renderContainer(n)
	default:
		return t.renderLeaf(n)
	}
}

func (t *TreeModel) renderConnection(n model.Node) string {
	id := n.Payload.Connection.ConnectionID
	dot := "○"
	style := t.theme.MutedText
	switch t.browser.Registry().Status(id) {
	case browse.StatusConnected:
		dot, style = "●", t.theme.StatusOK
	case browse.StatusConnecting:
		dot, style = "◐", t.theme.StatusWarn
	}
	name := t.theme.Base.Render(n.DisplayName)
	driver := t.theme.MutedText.Render(" [" + n.Payload.Connection.Driver + "]")
	return style.Render(dot) + " " + t.expandIndicator(n) + name + driver
}

func (t *TreeModel) renderContainer(n model.Node) string {
	name := t.theme.Renderer.NewStyle().Foreground(t.theme.Container).Render(n.DisplayName)
	suffix := ""
	if c := n.Payload.Container.LeafCount; c >= 0 {
		suffix = t.theme.MutedText.Render(fmt.Sprintf(" (%d)", c))
	}
	// An active scan pattern is part of what the rows below mean.
	if s, ok := t.browser.Session(n.Key); ok && s.Pattern() != "*" && s.Pattern() != "" {
		suffix += t.theme.SecondaryText.Render(" match=" + s.Pattern())
	}
	return t.expandIndicator(n) + name + suffix
}

func (t *TreeModel) renderLeaf(n model.Node) string {
	p := n.Payload.Leaf
	name := t.theme.Renderer.NewStyle().Foreground(t.theme.Leaf).Render(n.DisplayName)
	var meta []string
	if p.LeafType != "" {
		meta = append(meta, p.LeafType)
	}
	if p.TTLSeconds >= 0 {
		meta = append(meta, fmt.Sprintf("ttl=%ds", p.TTLSeconds))
	}
	if len(meta) == 0 {
		return "  " + name
	}
	return "  " + name + t.theme.MutedText.Render(" "+strings.Join(meta, " "))
}

func (t *TreeModel) expandIndicator(n model.Node) string {
	switch t.browser.ExpState(n.Key) {
	case browse.Expanded:
		return "▾ "
	case browse.Expanding:
		return "◌ "
	default:
		return "▸ "
	}
}

// truncateLine cuts a rendered line to width terminal cells. Escape
// sequences pass through without counting toward the budget; a cut inside
// a styled span ends with a reset so the style does not bleed into the
// next row.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(stripANSI(s)) <= width {
		return s
	}
	const ellipsis = "…"
	budget := width - runewidth.StringWidth(ellipsis)
	var sb strings.Builder
	cells := 0
	inEsc := false
	styled := false
	for _, r := range s {
		switch {
		case inEsc:
			sb.WriteRune(r)
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		case r == 0x1b:
			styled = true
			inEsc = true
			sb.WriteRune(r)
		default:
			w := runewidth.RuneWidth(r)
			if cells+w > budget {
				sb.WriteString(ellipsis)
				if styled {
					sb.WriteString("\x1b[0m")
				}
				return sb.String()
			}
			cells += w
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// stripANSI removes CSI sequences for width measurement.
func stripANSI(s string) string {
	var sb strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		case r == 0x1b:
			inEsc = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
