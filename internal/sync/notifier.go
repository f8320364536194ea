package sync

import "time"

// Notifier is the live-update collaborator handed to the invalidation
// pipeline. It never fails: a dead subscriber is the hub's problem.
type Notifier struct {
	Hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{Hub: hub}
}

func (n *Notifier) NotifyFilesChanged(fileIDs []string) {
	if len(fileIDs) == 0 {
		return
	}
	n.Hub.BroadcastJSON(MetadataEvent{
		Type:    EventFilesChanged,
		Scope:   ScopeFile,
		FileIDs: fileIDs,
		At:      time.Now().UTC(),
	})
}

func (n *Notifier) NotifySeriesChanged(seriesIDs []string) {
	if len(seriesIDs) == 0 {
		return
	}
	n.Hub.BroadcastJSON(MetadataEvent{
		Type:      EventSeriesChanged,
		Scope:     ScopeSeries,
		SeriesIDs: seriesIDs,
		At:        time.Now().UTC(),
	})
}

func (n *Notifier) NotifyMetadataChanged(scope string, fileIDs, seriesIDs []string) {
	n.Hub.BroadcastJSON(MetadataEvent{
		Type:      EventMetadataChanged,
		Scope:     scope,
		FileIDs:   fileIDs,
		SeriesIDs: seriesIDs,
		At:        time.Now().UTC(),
	})
}
