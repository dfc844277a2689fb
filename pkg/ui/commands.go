package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/browse"
	"github.com/vanderheijden86/warren/pkg/metrics"
	"github.com/vanderheijden86/warren/pkg/model"
	"github.com/vanderheijden86/warren/pkg/watcher"
)

// Commands run the backend calls described by browse Effects off the update
// loop. Each command carries the connection's context: disconnecting cancels
// it, and any result that still arrives is dropped by generation checks.

func fetchContainersCmd(ctx context.Context, svc backend.Service, family model.Family, req browse.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		defer metrics.Timer(metrics.FetchContainers)()
		cs, err := svc.ListContainers(ctx, req.ConnID)
		return ContainersLoadedMsg{Family: family, Req: req, Containers: cs, Err: err}
	}
}

func fetchLeavesCmd(ctx context.Context, svc backend.Service, family model.Family, req browse.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		defer metrics.Timer(metrics.FetchLeaves)()
		ls, err := svc.ListLeaves(ctx, req.ConnID, req.ContainerID)
		return LeavesLoadedMsg{Family: family, Req: req, Leaves: ls, Err: err}
	}
}

func scanCmd(ctx context.Context, svc backend.Service, family model.Family, req browse.ScanRequest, batchSize int) tea.Cmd {
	return func() tea.Msg {
		defer metrics.Timer(metrics.ScanBatch)()
		page, err := svc.ScanLeaves(ctx, req.ConnID, req.ContainerID, req.Pattern, req.Cursor, batchSize)
		return ScanBatchMsg{Family: family, Req: req, Page: page, Err: err}
	}
}

func connectCmd(ctx context.Context, svc backend.Service, family model.Family, req browse.ConnectRequest) tea.Cmd {
	return func() tea.Msg {
		defer metrics.Timer(metrics.ConnectBackend)()
		err := svc.Connect(ctx, req.ConnID)
		return ConnectDoneMsg{Family: family, ConnID: req.ConnID, Gen: req.Gen, Err: err}
	}
}

func disconnectCmd(svc backend.Service, family model.Family, req browse.DisconnectRequest) tea.Cmd {
	return func() tea.Msg {
		// Teardown gets its own short deadline: the connection context is
		// already cancelled at this point.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := svc.Disconnect(ctx, req.ConnID)
		return DisconnectDoneMsg{Family: family, ConnID: req.ConnID, Gen: req.Gen, Err: err}
	}
}

func deleteLeafCmd(ctx context.Context, d backend.LeafDeleter, family model.Family, containerKey, connID, containerID, name string) tea.Cmd {
	return func() tea.Msg {
		err := d.DeleteLeaf(ctx, connID, containerID, name)
		return LeafDeletedMsg{Family: family, Key: containerKey, Name: name, Err: err}
	}
}

// searchTickCmd fires after the debounce window so the controller can check
// whether the pending query is due.
func searchTickCmd(family model.Family, window time.Duration) tea.Cmd {
	return tea.Tick(window, func(time.Time) tea.Msg {
		return searchTickMsg{Family: family}
	})
}

// WatchProfilesCmd waits for the next profile database change.
func WatchProfilesCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return ProfilesChangedMsg{}
	}
}

// ProfileLister is the slice of the profile store the UI needs.
type ProfileLister interface {
	List(ctx context.Context) ([]model.Profile, error)
}

// profileUpdater is implemented by backends that can take a refreshed
// profile set without restarting.
type profileUpdater interface {
	SetProfiles(profiles []model.Profile)
}

// LoadProfilesCmd lists profiles from the store.
func LoadProfilesCmd(store ProfileLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ps, err := store.List(ctx)
		return ProfilesLoadedMsg{Profiles: ps, Err: err}
	}
}

func statusExpireCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return statusExpireMsg{id: id}
	})
}
