package postify_test

import (
	"testing"

	"postify/internal/postify"
)

var (
	alice = &postify.User{ID: "1", Username: "alice"}
	bob   = &postify.User{ID: "2", Username: "bob"}
)

func samplePosts() []postify.Post {
	return []postify.Post{
		{ID: "p3", UserID: "2", Text: "bob again", Likes: []postify.Like{{UserID: "1"}}},
		{ID: "p2", UserID: "1", Text: "alice", Likes: []postify.Like{{UserID: "2"}, {UserID: "3"}}},
		{ID: "p1", UserID: "2", Text: "bob"},
		{ID: "p0", UserID: "1", Text: "alice first"},
	}
}

func ids(posts []postify.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilteredFeed(t *testing.T) {
	tests := []struct {
		name string
		user *postify.User
		tab  postify.Tab
		want []string
	}{
		{name: "all returns everything in order", user: alice, tab: postify.TabAll, want: []string{"p3", "p2", "p1", "p0"}},
		{name: "mine for alice", user: alice, tab: postify.TabMine, want: []string{"p2", "p0"}},
		{name: "mine for bob", user: bob, tab: postify.TabMine, want: []string{"p3", "p1"}},
		{name: "mine for user with no posts", user: &postify.User{ID: "3"}, tab: postify.TabMine, want: []string{}},
		{name: "mine without a user", user: nil, tab: postify.TabMine, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(postify.FilteredFeed(samplePosts(), tt.user, tt.tab))
			if !equalIDs(got, tt.want) {
				t.Errorf("FilteredFeed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredFeed_MineIsOrderedSubsetOfAll(t *testing.T) {
	posts := samplePosts()
	for _, u := range []*postify.User{alice, bob} {
		all := postify.FilteredFeed(posts, u, postify.TabAll)
		mine := postify.FilteredFeed(posts, u, postify.TabMine)

		var want []string
		for _, p := range all {
			if postify.IsMine(p, u) {
				want = append(want, p.ID)
			}
		}
		if !equalIDs(ids(mine), want) {
			t.Errorf("user %s: mine = %v, want %v", u.Username, ids(mine), want)
		}
	}
}

func TestIsMine(t *testing.T) {
	for _, p := range samplePosts() {
		for _, u := range []*postify.User{alice, bob} {
			if got, want := postify.IsMine(p, u), p.UserID == u.ID; got != want {
				t.Errorf("IsMine(%s, %s) = %v, want %v", p.ID, u.Username, got, want)
			}
		}
	}
	if postify.IsMine(samplePosts()[0], nil) {
		t.Error("IsMine() with nil user = true")
	}
}

func TestIsLikedByMe(t *testing.T) {
	posts := samplePosts()
	tests := []struct {
		name string
		post postify.Post
		user *postify.User
		want bool
	}{
		{name: "liked", post: posts[0], user: alice, want: true},
		{name: "not liked", post: posts[0], user: bob, want: false},
		{name: "one of several likes", post: posts[1], user: bob, want: true},
		{name: "no likes", post: posts[2], user: alice, want: false},
		{name: "nil user", post: posts[0], user: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postify.IsLikedByMe(tt.post, tt.user); got != tt.want {
				t.Errorf("IsLikedByMe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountMine(t *testing.T) {
	if got := postify.CountMine(samplePosts(), alice); got != 2 {
		t.Errorf("CountMine(alice) = %d, want 2", got)
	}
	if got := postify.CountMine(nil, alice); got != 0 {
		t.Errorf("CountMine(nil) = %d, want 0", got)
	}
}

func TestResolveDetail(t *testing.T) {
	posts := samplePosts()
	stale := postify.Post{ID: "p2", Text: "alice"}

	got := postify.ResolveDetail(posts, stale)
	if len(got.Likes) != 2 {
		t.Errorf("ResolveDetail() likes = %d, want fresh copy with 2", len(got.Likes))
	}

	vanished := postify.Post{ID: "gone", Text: "deleted elsewhere"}
	if got := postify.ResolveDetail(posts, vanished); got.Text != "deleted elsewhere" {
		t.Errorf("ResolveDetail() for vanished post = %+v, want snapshot", got)
	}
}

func TestProjectView(t *testing.T) {
	ui := postify.NewInteractions()
	ui.SetTab(postify.TabMine)
	ui.SetDraft("p2", "typing")
	ui.ToggleComments("p0")
	ui.OpenDetail(postify.Post{ID: "p3"})

	v := postify.ProjectView(samplePosts(), alice, ui, true)

	if v.TotalCount != 4 || v.MineCount != 2 {
		t.Errorf("counts = %d/%d, want 4/2", v.TotalCount, v.MineCount)
	}
	if !v.Loading {
		t.Error("Loading = false, want true")
	}
	if len(v.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(v.Entries))
	}
	if e := v.Entries[0]; e.Post.ID != "p2" || e.Draft != "typing" || !e.Mine || e.CommentsVisible {
		t.Errorf("Entries[0] = %+v", e)
	}
	if e := v.Entries[1]; e.Post.ID != "p0" || !e.CommentsVisible {
		t.Errorf("Entries[1] = %+v", e)
	}
	if v.Detail == nil || v.Detail.Post.ID != "p3" || !v.Detail.LikedByMe || v.Detail.Mine {
		t.Errorf("Detail = %+v, want fresh p3 liked by alice", v.Detail)
	}
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		in     string
		want   postify.Tab
		wantOK bool
	}{
		{"", postify.TabAll, true},
		{"all", postify.TabAll, true},
		{"Mine", postify.TabMine, true},
		{"my", postify.TabMine, true},
		{"friends", "", false},
	}
	for _, tt := range tests {
		got, ok := postify.ParseTab(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseTab(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
