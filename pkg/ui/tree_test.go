package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/warren/pkg/browse"
	"github.com/vanderheijden86/warren/pkg/model"
)

func testTheme() Theme {
	return DefaultTheme(lipgloss.DefaultRenderer())
}

// treeFixture builds a browser with one connected SQL connection and
// returns it alongside a sized tree model.
func treeFixture(t *testing.T) (*browse.Browser, *TreeModel) {
	t.Helper()
	b := browse.NewBrowser(model.FamilySQL)
	b.SetConnections([]model.ConnectionDescriptor{
		{ID: "p1", Name: "prod", Family: model.FamilySQL, Driver: "postgres"},
	})
	eff, err := b.Connect("p1")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ApplyConnectDone("p1", eff.Connect.Gen, nil); err != nil {
		t.Fatal(err)
	}
	tm := NewTreeModel(b, testTheme())
	tm.SetSize(80, 24)
	return b, &tm
}

func expandConn(t *testing.T, b *browse.Browser, containers []model.ContainerDescriptor) {
	t.Helper()
	eff, err := b.Expand(model.ConnKey("p1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ApplyContainers(*eff.Fetch, containers, nil); err != nil {
		t.Fatal(err)
	}
}

func rowKinds(tm *TreeModel) []rowKind {
	kinds := make([]rowKind, len(tm.rows))
	for i, r := range tm.rows {
		kinds[i] = r.kind
	}
	return kinds
}

func TestTreeLoadingRow(t *testing.T) {
	b, tm := treeFixture(t)
	if _, err := b.Expand(model.ConnKey("p1")); err != nil {
		t.Fatal(err)
	}
	tm.Rebuild()

	kinds := rowKinds(tm)
	if len(kinds) != 2 || kinds[0] != rowNode || kinds[1] != rowLoading {
		t.Fatalf("rows = %v, want node then loading placeholder", kinds)
	}
}

func TestTreeErrorRow(t *testing.T) {
	b, tm := treeFixture(t)
	eff, err := b.Expand(model.ConnKey("p1"))
	if err != nil {
		t.Fatal(err)
	}
	applyErr := b.ApplyContainers(*eff.Fetch, nil, errors.New("timeout"))
	var fe *browse.FetchError
	if !errors.As(applyErr, &fe) {
		t.Fatalf("ApplyContainers error = %v, want FetchError", applyErr)
	}
	tm.Rebuild()

	kinds := rowKinds(tm)
	if len(kinds) != 2 || kinds[1] != rowError {
		t.Fatalf("rows = %v, want an error row", kinds)
	}
	if tm.rows[1].text != "timeout" {
		t.Errorf("error text = %q", tm.rows[1].text)
	}
}

func TestTreeEmptyRow(t *testing.T) {
	b, tm := treeFixture(t)
	expandConn(t, b, nil)
	tm.Rebuild()

	kinds := rowKinds(tm)
	if len(kinds) != 2 || kinds[1] != rowEmpty {
		t.Fatalf("rows = %v, want an empty placeholder", kinds)
	}
}

func TestTreeFlattensExpandedChildren(t *testing.T) {
	b, tm := treeFixture(t)
	expandConn(t, b, []model.ContainerDescriptor{
		{ID: "audit", Name: "audit"},
		{ID: "public", Name: "public"},
	})
	tm.Rebuild()

	if len(tm.rows) != 3 {
		t.Fatalf("have %d rows, want 3", len(tm.rows))
	}
	if tm.rows[1].depth != 1 || tm.rows[2].depth != 1 {
		t.Error("container rows not indented under the connection")
	}
	// Containers keep backend order.
	if tm.rows[1].node.DisplayName != "audit" || tm.rows[2].node.DisplayName != "public" {
		t.Errorf("row order: %q, %q", tm.rows[1].node.DisplayName, tm.rows[2].node.DisplayName)
	}
}

func TestTreeLoadMoreRow(t *testing.T) {
	b := browse.NewBrowser(model.FamilyRedis, browse.WithScanBatch(2))
	b.SetConnections([]model.ConnectionDescriptor{
		{ID: "r1", Name: "cache", Family: model.FamilyRedis, Driver: "redis"},
	})
	eff, err := b.Connect("r1")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ApplyConnectDone("r1", eff.Connect.Gen, nil); err != nil {
		t.Fatal(err)
	}
	eff, err = b.Expand(model.ConnKey("r1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ApplyContainers(*eff.Fetch, []model.ContainerDescriptor{{ID: "0", Name: "db0"}}, nil); err != nil {
		t.Fatal(err)
	}
	ctr := model.ContainerKey("r1", "0")
	eff, err = b.Expand(ctr)
	if err != nil {
		t.Fatal(err)
	}
	batch := []model.LeafDescriptor{{Name: "a"}, {Name: "b"}}
	if err := b.ApplyScan(*eff.Scan, batch, "17", nil); err != nil {
		t.Fatal(err)
	}

	tm := NewTreeModel(b, testTheme())
	tm.SetSize(80, 24)
	tm.Rebuild()

	kinds := rowKinds(&tm)
	want := []rowKind{rowNode, rowNode, rowNode, rowNode, rowLoadMore}
	if len(kinds) != len(want) {
		t.Fatalf("rows = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("rows = %v, want %v", kinds, want)
		}
	}
	if tm.rows[4].text != "load more" {
		t.Errorf("load-more text = %q", tm.rows[4].text)
	}
}

func TestTreeCursorSurvivesRebuild(t *testing.T) {
	b, tm := treeFixture(t)
	expandConn(t, b, []model.ContainerDescriptor{
		{ID: "audit", Name: "audit"},
		{ID: "public", Name: "public"},
	})
	tm.Rebuild()
	tm.MoveDown()
	tm.MoveDown() // public

	// Collapse and re-expand above the cursor; the selected key survives.
	b.Collapse(model.ConnKey("p1"))
	if _, err := b.Expand(model.ConnKey("p1")); err != nil {
		t.Fatal(err)
	}
	tm.Rebuild()

	row, ok := tm.SelectedRow()
	if !ok || row.key != model.ContainerKey("p1", "public") {
		t.Fatalf("selected key = %q after rebuild", row.key)
	}
}

func TestTreeCursorClampedWhenRowsShrink(t *testing.T) {
	b, tm := treeFixture(t)
	expandConn(t, b, []model.ContainerDescriptor{
		{ID: "audit", Name: "audit"},
		{ID: "public", Name: "public"},
	})
	tm.Rebuild()
	tm.GotoBottom()

	b.Collapse(model.ConnKey("p1"))
	tm.Rebuild()

	row, ok := tm.SelectedRow()
	if !ok {
		t.Fatal("no selected row after shrink")
	}
	if row.key != model.ConnKey("p1") {
		t.Errorf("selected key = %q, want the connection", row.key)
	}
}

func TestTreeViewWindowing(t *testing.T) {
	b, tm := treeFixture(t)
	var containers []model.ContainerDescriptor
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		containers = append(containers, model.ContainerDescriptor{ID: name, Name: name})
	}
	expandConn(t, b, containers)
	tm.SetSize(40, 5) // 4 content rows + position line
	tm.Rebuild()

	start, end := tm.visibleRange()
	if end-start != 4 {
		t.Fatalf("visible window = [%d,%d)", start, end)
	}
	tm.GotoBottom()
	start, end = tm.visibleRange()
	if end != len(tm.rows) {
		t.Errorf("window after GotoBottom = [%d,%d), rows = %d", start, end, len(tm.rows))
	}
}

// TestTruncateLineIgnoresEscapes verifies escape sequences do not count
// toward the width budget, so a colored line keeps as many visible cells
// as a plain one.
func TestTruncateLineIgnoresEscapes(t *testing.T) {
	styled := "\x1b[31mabcdef\x1b[0m"
	got := truncateLine(styled, 4)

	plain := stripANSI(got)
	if plain != "abc…" {
		t.Errorf("visible text = %q, want %q", plain, "abc…")
	}
	if w := runewidth.StringWidth(plain); w > 4 {
		t.Errorf("visible width = %d, want <= 4", w)
	}
	if !strings.Contains(got, "\x1b[31m") {
		t.Error("leading escape sequence should survive the cut")
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Error("a cut inside a styled span must end with a reset")
	}

	// Plain input truncates identically.
	if got := truncateLine("abcdef", 4); got != "abc…" {
		t.Errorf("plain truncation = %q, want %q", got, "abc…")
	}
	// Lines within the budget pass through untouched, escapes and all.
	if got := truncateLine(styled, 6); got != styled {
		t.Errorf("in-budget line modified: %q", got)
	}
}
