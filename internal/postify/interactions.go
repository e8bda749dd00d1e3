package postify

import "sync"

// Interactions holds per-post UI state that has no backend representation:
// draft comment text, comment panel visibility and the open detail view,
// plus the active tab and composer flag. Entries are keyed by post id only,
// so an entry whose post left the feed is inert until pruned or cleared.
type Interactions struct {
	mu           sync.RWMutex
	drafts       map[string]string
	visible      map[string]bool
	detail       *Post
	tab          Tab
	composerOpen bool
}

// NewInteractions creates an empty Interactions with the "all" tab active.
func NewInteractions() *Interactions {
	return &Interactions{
		drafts:  make(map[string]string),
		visible: make(map[string]bool),
		tab:     TabAll,
	}
}

// SetDraft records the comment being typed for postID. An empty text removes
// the entry.
func (i *Interactions) SetDraft(postID, text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if text == "" {
		delete(i.drafts, postID)
		return
	}
	i.drafts[postID] = text
}

// Draft returns the comment being typed for postID, or "".
func (i *Interactions) Draft(postID string) string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.drafts[postID]
}

// ClearDraft removes the draft for postID only.
func (i *Interactions) ClearDraft(postID string) {
	i.SetDraft(postID, "")
}

// ToggleComments flips the comment panel of postID.
func (i *Interactions) ToggleComments(postID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.visible[postID] {
		delete(i.visible, postID)
		return
	}
	i.visible[postID] = true
}

// CommentsVisible reports whether the comment panel of postID is open.
func (i *Interactions) CommentsVisible(postID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.visible[postID]
}

// OpenDetail opens the detail view for post. The snapshot is kept so the
// view can still render if the post disappears from the feed.
func (i *Interactions) OpenDetail(post Post) {
	p := post.clone()
	i.mu.Lock()
	defer i.mu.Unlock()
	i.detail = &p
}

// CloseDetail closes the detail view.
func (i *Interactions) CloseDetail() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.detail = nil
}

// Detail returns the snapshot of the open post, if any.
func (i *Interactions) Detail() (Post, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.detail == nil {
		return Post{}, false
	}
	return i.detail.clone(), true
}

// SetTab selects the active feed tab.
func (i *Interactions) SetTab(tab Tab) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tab = tab
}

// Tab returns the active feed tab.
func (i *Interactions) Tab() Tab {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tab
}

// ToggleComposer shows or hides the new-post form.
func (i *Interactions) ToggleComposer() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.composerOpen = !i.composerOpen
}

// CloseComposer hides the new-post form.
func (i *Interactions) CloseComposer() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.composerOpen = false
}

// ComposerOpen reports whether the new-post form is shown.
func (i *Interactions) ComposerOpen() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.composerOpen
}

// InteractionSnapshot is a copy of all ephemeral state taken under one lock.
type InteractionSnapshot struct {
	Tab          Tab
	ComposerOpen bool
	Drafts       map[string]string
	Visible      map[string]bool
	Detail       *Post
}

// Snapshot copies the whole ephemeral state at once, so a view built from it
// never mixes states from before and after a concurrent change.
func (i *Interactions) Snapshot() InteractionSnapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	snap := InteractionSnapshot{
		Tab:          i.tab,
		ComposerOpen: i.composerOpen,
		Drafts:       make(map[string]string, len(i.drafts)),
		Visible:      make(map[string]bool, len(i.visible)),
	}
	for id, text := range i.drafts {
		snap.Drafts[id] = text
	}
	for id, v := range i.visible {
		snap.Visible[id] = v
	}
	if i.detail != nil {
		p := i.detail.clone()
		snap.Detail = &p
	}
	return snap
}

// Len returns the number of posts with any keyed state.
func (i *Interactions) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.keys())
}

// Prune drops keyed entries for posts not in live. The open detail view is
// left alone.
func (i *Interactions) Prune(live []Post) int {
	keep := make(map[string]bool, len(live))
	for _, p := range live {
		keep[p.ID] = true
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	removed := 0
	for id := range i.keys() {
		if keep[id] {
			continue
		}
		delete(i.drafts, id)
		delete(i.visible, id)
		removed++
	}
	return removed
}

// ClearAll resets every entry to its default. Called on logout.
func (i *Interactions) ClearAll() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.drafts = make(map[string]string)
	i.visible = make(map[string]bool)
	i.detail = nil
	i.tab = TabAll
	i.composerOpen = false
}

// keys returns the set of post ids with keyed state. Caller holds mu.
func (i *Interactions) keys() map[string]struct{} {
	ids := make(map[string]struct{}, len(i.drafts)+len(i.visible))
	for id := range i.drafts {
		ids[id] = struct{}{}
	}
	for id := range i.visible {
		ids[id] = struct{}{}
	}
	return ids
}
