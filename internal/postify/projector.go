package postify

// The projector derives views from store snapshots. Nothing here holds state
// or caches: every call recomputes from its arguments.

// FilteredFeed returns the posts shown on tab. TabAll returns posts
// unchanged; TabMine keeps only posts authored by user, in original order.
func FilteredFeed(posts []Post, user *User, tab Tab) []Post {
	if tab != TabMine {
		return posts
	}
	mine := make([]Post, 0, len(posts))
	for _, p := range posts {
		if IsMine(p, user) {
			mine = append(mine, p)
		}
	}
	return mine
}

// IsLikedByMe reports whether user appears among the post's likes.
func IsLikedByMe(post Post, user *User) bool {
	if user == nil {
		return false
	}
	for _, l := range post.Likes {
		if l.UserID == user.ID {
			return true
		}
	}
	return false
}

// IsMine reports whether user authored the post.
func IsMine(post Post, user *User) bool {
	return user != nil && post.UserID == user.ID
}

// CountMine returns how many posts user authored.
func CountMine(posts []Post, user *User) int {
	n := 0
	for _, p := range posts {
		if IsMine(p, user) {
			n++
		}
	}
	return n
}

// ResolveDetail returns the freshest copy of open from posts, matched by id.
// If the post is no longer in the feed the snapshot itself is returned.
func ResolveDetail(posts []Post, open Post) Post {
	for _, p := range posts {
		if p.ID == open.ID {
			return p
		}
	}
	return open
}

// FeedEntry is one post as rendered in a list, with its per-viewer flags and
// ephemeral state.
type FeedEntry struct {
	Post            Post
	LikedByMe       bool
	Mine            bool
	CommentsVisible bool
	Draft           string
}

// FeedView is a complete, consistent snapshot for a presentation layer.
type FeedView struct {
	User         *User
	Tab          Tab
	Entries      []FeedEntry
	TotalCount   int
	MineCount    int
	Loading      bool
	ComposerOpen bool
	Detail       *FeedEntry
}

// ProjectView builds a FeedView from a feed snapshot, the current user and
// the ephemeral state. The ephemeral state is read once, under one lock.
func ProjectView(posts []Post, user *User, ui *Interactions, loading bool) FeedView {
	st := ui.Snapshot()
	shown := FilteredFeed(posts, user, st.Tab)

	v := FeedView{
		User:         user,
		Tab:          st.Tab,
		Entries:      make([]FeedEntry, len(shown)),
		TotalCount:   len(posts),
		MineCount:    CountMine(posts, user),
		Loading:      loading,
		ComposerOpen: st.ComposerOpen,
	}
	for i, p := range shown {
		v.Entries[i] = entryFor(p, user, st)
	}

	if st.Detail != nil {
		e := entryFor(ResolveDetail(posts, *st.Detail), user, st)
		v.Detail = &e
	}
	return v
}

func entryFor(p Post, user *User, st InteractionSnapshot) FeedEntry {
	return FeedEntry{
		Post:            p,
		LikedByMe:       IsLikedByMe(p, user),
		Mine:            IsMine(p, user),
		CommentsVisible: st.Visible[p.ID],
		Draft:           st.Drafts[p.ID],
	}
}
