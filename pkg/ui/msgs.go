package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/browse"
	"github.com/vanderheijden86/warren/pkg/model"
)

// Messages carry backend results back into the update loop. Every result
// message embeds the request it answers so the browse core can discard it
// when its generation has been superseded.

// ContainersLoadedMsg answers a FetchContainers request.
type ContainersLoadedMsg struct {
	Family     model.Family
	Req        browse.FetchRequest
	Containers []model.ContainerDescriptor
	Err        error
}

// LeavesLoadedMsg answers a FetchLeaves request.
type LeavesLoadedMsg struct {
	Family model.Family
	Req    browse.FetchRequest
	Leaves []model.LeafDescriptor
	Err    error
}

// ScanBatchMsg answers one cursor scan step.
type ScanBatchMsg struct {
	Family model.Family
	Req    browse.ScanRequest
	Page   backend.ScanPage
	Err    error
}

// ConnectDoneMsg answers a connect request.
type ConnectDoneMsg struct {
	Family model.Family
	ConnID string
	Gen    uint64
	Err    error
}

// DisconnectDoneMsg answers a disconnect request.
type DisconnectDoneMsg struct {
	Family model.Family
	ConnID string
	Gen    uint64
	Err    error
}

// LeafDeletedMsg answers a delete request. Key is the container whose
// subtree must refresh on success.
type LeafDeletedMsg struct {
	Family model.Family
	Key    string
	Name   string
	Err    error
}

// searchTickMsg fires when a search debounce window may have elapsed. The
// controller decides whether the pass is actually due.
type searchTickMsg struct {
	Family model.Family
}

// ProfilesChangedMsg is sent when the profile database changes on disk.
type ProfilesChangedMsg struct{}

// ProfilesLoadedMsg carries a fresh profile listing.
type ProfilesLoadedMsg struct {
	Profiles []model.Profile
	Err      error
}

// statusExpireMsg clears a transient status bar message.
type statusExpireMsg struct {
	id int
}

// ReadyTimeoutMsg is sent after a short delay to ensure the UI becomes
// ready even if the terminal doesn't send WindowSizeMsg promptly.
type ReadyTimeoutMsg struct{}

// ReadyTimeoutCmd returns a command that sends ReadyTimeoutMsg after 100ms.
// This keeps the TUI from hanging on "Initializing..." when the terminal is
// slow to report its size (tmux, SSH, some emulators).
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}
