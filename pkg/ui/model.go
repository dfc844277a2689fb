// model.go - main Bubble Tea model wiring the browse core, backends,
// profile store and watcher together.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/browse"
	"github.com/vanderheijden86/warren/pkg/config"
	"github.com/vanderheijden86/warren/pkg/debug"
	"github.com/vanderheijden86/warren/pkg/metrics"
	"github.com/vanderheijden86/warren/pkg/model"
	"github.com/vanderheijden86/warren/pkg/watcher"
)

// inputMode says what the bottom text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputPattern
)

// page bundles one family's browser, tree view and backend service.
type page struct {
	family  model.Family
	browser *browse.Browser
	tree    TreeModel
	svc     backend.Service
}

// Model is the main Bubble Tea model for warren.
type Model struct {
	cfg   config.Config
	theme Theme

	pages      []*page
	activePage int

	profiles []model.Profile
	store    ProfileLister
	watcher  *watcher.Watcher

	// Per-connection contexts. Cancelled on disconnect so in-flight
	// fetches stop instead of racing the eviction.
	connCtx    map[string]context.Context
	connCancel map[string]context.CancelFunc

	// Switch confirmation modal
	confirmForm   *huh.Form
	pendingSwitch *browse.PendingSwitch

	// Bottom input (search or scan pattern)
	input      textinput.Model
	mode       inputMode
	patternKey string // container the pattern edit targets

	// Transient status line
	statusMsg   string
	statusIsErr bool
	statusID    int

	// Remembered expansion, restored after a connection comes up.
	treeState *TreeState
	stateDir  string

	perms  backend.PermissionChecker
	logger *log.Logger

	width  int
	height int
	ready  bool
}

// ModelOption configures the root model.
type ModelOption func(*Model)

// WithPermissionChecker sets the capability checker for destructive keys.
func WithPermissionChecker(p backend.PermissionChecker) ModelOption {
	return func(m *Model) { m.perms = p }
}

// WithWatcher attaches a profile database watcher for live reload.
func WithWatcher(w *watcher.Watcher) ModelOption {
	return func(m *Model) { m.watcher = w }
}

// WithModelLogger sets the logger for background noise (watch errors,
// ignored disconnect failures).
func WithModelLogger(l *log.Logger) ModelOption {
	return func(m *Model) { m.logger = l }
}

// WithTreeState attaches persisted expansion memory. stateDir is where
// changes are saved back.
func WithTreeState(state *TreeState, stateDir string) ModelOption {
	return func(m *Model) {
		m.treeState = state
		m.stateDir = stateDir
	}
}

// NewModel builds the root model. sqlSvc and redisSvc may be the same
// implementation in tests.
func NewModel(cfg config.Config, store ProfileLister, sqlSvc, redisSvc backend.Service, opts ...ModelOption) Model {
	r := lipgloss.DefaultRenderer()
	theme := ThemeByName(cfg.UI.Theme, r)

	window := time.Duration(cfg.Browse.SearchDebounceMs) * time.Millisecond
	logger := log.New(logWriter{}, "", log.LstdFlags)

	m := Model{
		cfg:        cfg,
		theme:      theme,
		connCtx:    make(map[string]context.Context),
		connCancel: make(map[string]context.CancelFunc),
		store:      store,
		perms:      backend.AllowAll{},
		logger:     logger,
	}

	for _, fam := range []model.Family{model.FamilySQL, model.FamilyRedis} {
		svc := sqlSvc
		if fam == model.FamilyRedis {
			svc = redisSvc
		}
		b := browse.NewBrowser(fam,
			browse.WithSearchWindow(window),
			browse.WithScanBatch(cfg.Browse.ScanBatchSize),
			browse.WithLogger(logger),
		)
		m.pages = append(m.pages, &page{
			family:  fam,
			browser: b,
			tree:    NewTreeModel(b, theme),
			svc:     svc,
		})
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = 128
	m.input = ti

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// logWriter drops log output when no log file is configured; main swaps in
// a real file via log.SetOutput.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) { return len(p), nil }

func (m *Model) page() *page { return m.pages[m.activePage] }

// Profiles returns the current profile listing.
func (m *Model) Profiles() []model.Profile { return m.profiles }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd(), LoadProfilesCmd(m.store)}
	if m.watcher != nil {
		cmds = append(cmds, WatchProfilesCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// runEffect converts a browse Effect into the command that performs it.
func (m *Model) runEffect(p *page, eff browse.Effect) tea.Cmd {
	switch {
	case eff.None():
		return nil
	case eff.Fetch != nil:
		ctx := m.ctxFor(eff.Fetch.ConnID)
		if eff.Fetch.Op == browse.FetchContainers {
			return fetchContainersCmd(ctx, p.svc, p.family, *eff.Fetch)
		}
		return fetchLeavesCmd(ctx, p.svc, p.family, *eff.Fetch)
	case eff.Scan != nil:
		return scanCmd(m.ctxFor(eff.Scan.ConnID), p.svc, p.family, *eff.Scan, p.browser.ScanBatch())
	case eff.Connect != nil:
		m.openConnCtx(eff.Connect.ConnID)
		return connectCmd(m.ctxFor(eff.Connect.ConnID), p.svc, p.family, *eff.Connect)
	case eff.Disconnect != nil:
		m.closeConnCtx(eff.Disconnect.ConnID)
		return disconnectCmd(p.svc, p.family, *eff.Disconnect)
	case eff.Prompt != nil:
		m.openSwitchPrompt(*eff.Prompt)
		return m.confirmForm.Init()
	}
	return nil
}

func (m *Model) ctxFor(connID string) context.Context {
	if ctx, ok := m.connCtx[connID]; ok {
		return ctx
	}
	return context.Background()
}

func (m *Model) openConnCtx(connID string) {
	if _, ok := m.connCtx[connID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.connCtx[connID] = ctx
	m.connCancel[connID] = cancel
}

func (m *Model) closeConnCtx(connID string) {
	if cancel, ok := m.connCancel[connID]; ok {
		cancel()
		delete(m.connCancel, connID)
		delete(m.connCtx, connID)
	}
}

// confirmSwitchKey is the huh field key for the switch prompt. The model has
// value semantics, so the answer is read back via Form.GetBool rather than a
// bound pointer.
const confirmSwitchKey = "confirm-switch"

func (m *Model) openSwitchPrompt(ps browse.PendingSwitch) {
	m.pendingSwitch = &ps
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key(confirmSwitchKey).
				Title(fmt.Sprintf("Disconnect %s and connect %s?", m.profileName(ps.From), m.profileName(ps.To))).
				Description("Only one connection can be active at a time.").
				Affirmative("Switch").
				Negative("Stay"),
		),
	)
}

func (m *Model) profileName(id string) string {
	for _, p := range m.profiles {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func (m *Model) rememberExpansion(key string, expanded bool) {
	if m.treeState == nil {
		return
	}
	m.treeState.SetExpanded(key, expanded)
	m.treeState.Save(m.stateDir)
}

// restoreExpansion re-expands containers the user had open in a previous
// session, once their connection's containers have loaded.
func (m *Model) restoreExpansion(p *page, connKey string) []tea.Cmd {
	if m.treeState == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, key := range m.treeState.ExpandedUnder(connKey) {
		if key == connKey {
			continue
		}
		eff, err := p.browser.Expand(key)
		if err != nil {
			continue
		}
		if cmd := m.runEffect(p, eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusIsErr = isErr
	m.statusID++
	return statusExpireCmd(m.statusID, 4*time.Second)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The confirm modal gets every message while open: huh forms need the
	// full message stream.
	if m.confirmForm != nil {
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		for _, p := range m.pages {
			p.tree.SetSize(msg.Width, msg.Height-3)
		}
		return m, nil

	case ReadyTimeoutMsg:
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case ProfilesChangedMsg:
		debug.Log("profile store changed on disk, reloading")
		cmds := []tea.Cmd{LoadProfilesCmd(m.store)}
		if m.watcher != nil {
			cmds = append(cmds, WatchProfilesCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case ProfilesLoadedMsg:
		if msg.Err != nil {
			return m, m.setStatus("loading profiles: "+msg.Err.Error(), true)
		}
		m.profiles = msg.Profiles
		for _, p := range m.pages {
			if u, ok := p.svc.(profileUpdater); ok {
				u.SetProfiles(msg.Profiles)
			}
		}
		for _, p := range m.pages {
			var descs []model.ConnectionDescriptor
			for _, prof := range msg.Profiles {
				if prof.Family == p.family {
					descs = append(descs, prof.Descriptor())
				}
			}
			p.browser.SetConnections(descs)
			p.tree.Rebuild()
		}
		return m, nil

	case ContainersLoadedMsg:
		return m.applyContainers(msg)

	case LeavesLoadedMsg:
		return m.applyLeaves(msg)

	case ScanBatchMsg:
		return m.applyScan(msg)

	case ConnectDoneMsg:
		return m.applyConnectDone(msg)

	case DisconnectDoneMsg:
		return m.applyDisconnectDone(msg)

	case LeafDeletedMsg:
		p := m.pageFor(msg.Family)
		if msg.Err != nil {
			return m, m.setStatus("delete "+msg.Name+": "+msg.Err.Error(), true)
		}
		eff, err := p.browser.Refresh(msg.Key)
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		p.tree.Rebuild()
		return m, tea.Batch(m.setStatus("deleted "+msg.Name, false), m.runEffect(p, eff))

	case searchTickMsg:
		return m.applySearchTick(msg)

	case statusExpireMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirmForm = f
	}
	var accept bool
	switch m.confirmForm.State {
	case huh.StateCompleted:
		accept = m.confirmForm.GetBool(confirmSwitchKey)
	case huh.StateAborted:
	default:
		return m, cmd
	}

	p := m.page()
	m.confirmForm = nil
	m.pendingSwitch = nil
	if !accept {
		p.browser.CancelSwitch()
		p.tree.Rebuild()
		return m, cmd
	}
	eff, err := p.browser.ConfirmSwitch()
	if err != nil {
		return m, tea.Batch(cmd, m.setStatus(err.Error(), true))
	}
	p.tree.Rebuild()
	return m, tea.Batch(cmd, m.runEffect(p, eff))
}

func (m *Model) pageFor(fam model.Family) *page {
	for _, p := range m.pages {
		if p.family == fam {
			return p
		}
	}
	return m.pages[0]
}

func (m Model) applyContainers(msg ContainersLoadedMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	err := p.browser.ApplyContainers(msg.Req, msg.Containers, msg.Err)
	if err != nil {
		p.tree.Rebuild()
		return m, m.setStatus(err.Error(), true)
	}
	cmds := m.restoreExpansion(p, msg.Req.Key)
	p.tree.Rebuild()
	return m, tea.Batch(cmds...)
}

func (m Model) applyLeaves(msg LeavesLoadedMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	err := p.browser.ApplyLeaves(msg.Req, msg.Leaves, msg.Err)
	p.tree.Rebuild()
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	return m, nil
}

func (m Model) applyScan(msg ScanBatchMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	err := p.browser.ApplyScan(msg.Req, msg.Page.Items, msg.Page.Cursor, msg.Err)
	p.tree.Rebuild()
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	return m, nil
}

func (m Model) applyConnectDone(msg ConnectDoneMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	debug.Log("connect done conn=%s gen=%d err=%v", msg.ConnID, msg.Gen, msg.Err)
	if err := p.browser.ApplyConnectDone(msg.ConnID, msg.Gen, msg.Err); err != nil {
		m.closeConnCtx(msg.ConnID)
		p.tree.Rebuild()
		return m, m.setStatus(err.Error(), true)
	}
	if p.browser.Registry().Status(msg.ConnID) != browse.StatusConnected {
		// Stale completion: the context was already torn down.
		p.tree.Rebuild()
		return m, nil
	}

	// Expand the fresh connection and restore remembered expansion.
	cmds := []tea.Cmd{m.setStatus("connected "+m.profileName(msg.ConnID), false)}
	eff, err := p.browser.Expand(model.ConnKey(msg.ConnID))
	if err == nil {
		if cmd := m.runEffect(p, eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	p.tree.Rebuild()
	return m, tea.Batch(cmds...)
}

func (m Model) applyDisconnectDone(msg DisconnectDoneMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	eff := p.browser.ApplyDisconnectDone(msg.ConnID, msg.Gen, msg.Err)
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

func (m Model) applySearchTick(msg searchTickMsg) (tea.Model, tea.Cmd) {
	p := m.pageFor(msg.Family)
	sc := p.browser.Searcher()
	query, gen, ok := sc.Due(time.Now())
	if !ok {
		return m, nil
	}
	start := time.Now()
	result := p.browser.ExecuteSearch(query)
	elapsed := time.Since(start)
	metrics.SearchPass.Record(elapsed)
	debug.LogTiming("search."+query, elapsed)
	sc.Apply(gen, result)
	p.tree.Rebuild()
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != inputNone {
		return m.updateInputMode(msg)
	}

	p := m.page()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.activePage = (m.activePage + 1) % len(m.pages)
		m.page().tree.Rebuild()
		return m, nil

	case "up", "k":
		p.tree.MoveUp()
		return m, nil

	case "down", "j":
		p.tree.MoveDown()
		return m, nil

	case "pgup", "b":
		p.tree.PageBackward()
		return m, nil

	case "pgdown", "f":
		p.tree.PageForward()
		return m, nil

	case "g":
		p.tree.GotoTop()
		return m, nil

	case "G":
		p.tree.GotoBottom()
		return m, nil

	case "enter", " ":
		return m.toggleSelected()

	case "h", "left":
		if n, ok := p.tree.SelectedNode(); ok && n.Kind.CanHaveChildren() {
			p.browser.Collapse(n.Key)
			m.rememberExpansion(n.Key, false)
			p.tree.Rebuild()
		}
		return m, nil

	case "r":
		return m.refreshSelected()

	case "c":
		return m.connectSelected()

	case "d":
		return m.disconnectSelected()

	case "m":
		return m.loadMoreSelected()

	case "/":
		m.mode = inputSearch
		m.input.Prompt = "/"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case "p":
		if n, ok := p.tree.SelectedNode(); ok && n.Kind == model.KindContainer {
			m.mode = inputPattern
			m.patternKey = n.Key
			m.input.Prompt = "match: "
			if s, ok := p.browser.Session(n.Key); ok {
				m.input.SetValue(s.Pattern())
			} else {
				m.input.SetValue("*")
			}
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case "x":
		return m.deleteSelected()

	case "y":
		if n, ok := p.tree.SelectedNode(); ok && n.Kind == model.KindLeaf {
			if err := clipboard.WriteAll(n.DisplayName); err != nil {
				return m, m.setStatus("clipboard: "+err.Error(), true)
			}
			return m, m.setStatus("copied "+n.DisplayName, false)
		}
		return m, nil

	case "esc":
		if p.browser.Searcher().Result() != nil {
			p.browser.Searcher().Clear()
			p.tree.Rebuild()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.page()
	switch msg.String() {
	case "esc":
		wasSearch := m.mode == inputSearch
		m.mode = inputNone
		m.input.Blur()
		if wasSearch {
			p.browser.Searcher().Clear()
		}
		p.tree.Rebuild()
		return m, nil

	case "enter":
		if m.mode == inputPattern {
			pattern := strings.TrimSpace(m.input.Value())
			m.mode = inputNone
			m.input.Blur()
			if pattern == "" {
				pattern = "*"
			}
			eff, err := p.browser.SetScanPattern(m.patternKey, pattern)
			if err != nil {
				return m, m.setStatus(err.Error(), true)
			}
			p.tree.Rebuild()
			return m, m.runEffect(p, eff)
		}
		// Search: keep the result on screen, leave input mode.
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.mode == inputSearch {
		sc := p.browser.Searcher()
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			sc.Clear()
			p.tree.Rebuild()
			return m, cmd
		}
		sc.OnInput(text, time.Now())
		return m, tea.Batch(cmd, searchTickCmd(p.family, sc.Window()))
	}
	return m, cmd
}

func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	row, ok := p.tree.SelectedRow()
	if !ok {
		return m, nil
	}
	if row.kind == rowLoadMore {
		return m.loadMoreKey(row.key)
	}
	if row.kind != rowNode || !row.node.Kind.CanHaveChildren() {
		return m, nil
	}

	eff, err := p.browser.Toggle(row.key)
	if err != nil {
		if errors.Is(err, browse.ErrNotConnected) {
			return m, m.setStatus("not connected; press c to connect", true)
		}
		return m, m.setStatus(err.Error(), true)
	}
	m.rememberExpansion(row.key, p.browser.ExpState(row.key) != browse.Collapsed)
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

func (m Model) refreshSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	n, ok := p.tree.SelectedNode()
	if !ok || !n.Kind.CanHaveChildren() {
		return m, nil
	}
	eff, err := p.browser.Refresh(n.Key)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

func (m Model) connectSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	n, ok := p.tree.SelectedNode()
	if !ok || n.Kind != model.KindConnection {
		return m, nil
	}
	id := n.Payload.Connection.ConnectionID

	if !m.cfg.ConfirmSwitch() && p.browser.Registry().Active() != "" && p.browser.Registry().Active() != id {
		// Confirmation disabled: switch straight away.
		eff, err := p.browser.Connect(id)
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		if eff.Prompt != nil {
			eff2, err := p.browser.ConfirmSwitch()
			if err != nil {
				return m, m.setStatus(err.Error(), true)
			}
			p.tree.Rebuild()
			return m, m.runEffect(p, eff2)
		}
		p.tree.Rebuild()
		return m, m.runEffect(p, eff)
	}

	eff, err := p.browser.Connect(id)
	if err != nil {
		if errors.Is(err, browse.ErrSwitchPending) {
			return m, m.setStatus("a connection switch is already in progress", true)
		}
		return m, m.setStatus(err.Error(), true)
	}
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

func (m Model) disconnectSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	n, ok := p.tree.SelectedNode()
	if !ok || n.Kind != model.KindConnection {
		return m, nil
	}
	id := n.Payload.Connection.ConnectionID
	eff, err := p.browser.Disconnect(id)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	n, ok := p.tree.SelectedNode()
	if !ok || n.Kind != model.KindLeaf {
		return m, nil
	}
	if !m.perms.HasPermission(backend.CapDeleteLeaf) {
		return m, m.setStatus("permission denied: "+backend.CapDeleteLeaf, true)
	}
	deleter, ok := p.svc.(backend.LeafDeleter)
	if !ok {
		return m, m.setStatus("this backend cannot delete resources", true)
	}
	leaf := n.Payload.Leaf
	containerKey := model.ContainerKey(leaf.ConnectionID, leaf.ContainerID)
	ctx := m.ctxFor(leaf.ConnectionID)
	return m, deleteLeafCmd(ctx, deleter, p.family, containerKey, leaf.ConnectionID, leaf.ContainerID, leaf.Name)
}

func (m Model) loadMoreSelected() (tea.Model, tea.Cmd) {
	p := m.page()
	row, ok := p.tree.SelectedRow()
	if !ok {
		return m, nil
	}
	key := row.key
	if row.kind == rowNode && row.node.Kind == model.KindContainer {
		key = row.node.Key
	}
	return m.loadMoreKey(key)
}

func (m Model) loadMoreKey(key string) (tea.Model, tea.Cmd) {
	p := m.page()
	eff, err := p.browser.LoadMore(key)
	if err != nil {
		if errors.Is(err, browse.ErrNotExpandable) {
			return m, nil
		}
		return m, m.setStatus(err.Error(), true)
	}
	p.tree.Rebuild()
	return m, m.runEffect(p, eff)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.confirmForm != nil {
		return m.confirmForm.View()
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	p := m.page()
	if result := p.browser.Searcher().Result(); result != nil {
		sb.WriteString(m.renderSearchResults(result))
	} else {
		sb.WriteString(p.tree.View())
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderHeader() string {
	p := m.page()
	title := m.theme.PrimaryBold.Render("warren")
	fam := m.theme.SecondaryText.Render(" · " + string(p.family))
	active := ""
	if id := p.browser.Registry().Active(); id != "" {
		active = m.theme.StatusOK.Render(" · " + m.profileName(id))
	}
	if m.cfg.UI.Headless {
		return title + fam + active
	}
	return m.theme.Header.Width(m.width).Render(title + fam + active)
}

func (m Model) renderFooter() string {
	if m.mode != inputNone {
		return m.input.View()
	}
	if m.statusMsg != "" {
		if m.statusIsErr {
			return m.theme.ErrorText.Render(m.statusMsg)
		}
		return m.theme.StatusOK.Render(m.statusMsg)
	}
	help := "enter expand · c connect · d disconnect · / search · p match · m more · r refresh · y copy · tab family · q quit"
	return m.theme.MutedText.Render(truncateLine(help, m.width))
}

func (m Model) renderSearchResults(result *browse.SearchResult) string {
	var sb strings.Builder
	header := fmt.Sprintf("results for %q (esc to clear)", result.Query)
	sb.WriteString(m.theme.SecondaryText.Render(header))
	sb.WriteString("\n")

	if len(result.Groups) == 0 {
		sb.WriteString(m.theme.MutedText.Render("  no matches"))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, g := range result.Groups {
		sb.WriteString(m.theme.PrimaryBold.Render(g.ContainerName))
		sb.WriteString("\n")
		for _, n := range g.Matches {
			sb.WriteString("  " + m.theme.SearchMatch.Render(n.DisplayName))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
