package postify_test

import (
	"bytes"
	"testing"

	"postify/internal/postify"
	"postify/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// pngOfSize returns bytes that sniff as image/png with the given length.
func pngOfSize(n int) []byte {
	if n < len(pngHeader) {
		n = len(pngHeader)
	}
	return append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, n-len(pngHeader))...)
}

type fixture struct {
	backend *testutil.FakeBackend
	kv      *testutil.MemoryKV
	engine  *postify.Engine
	alice   postify.User
	bob     postify.User
}

// newFixture creates a fake backend with alice (id 1) and bob (id 2) and an
// engine that is not logged in.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := testutil.NewFakeBackend()
	f := &fixture{
		backend: b,
		kv:      testutil.NewMemoryKV(),
		alice:   b.AddUser("1", "alice", "alice@example.com", "alice-pw"),
		bob:     b.AddUser("2", "bob", "bob@example.com", "bob-pw"),
	}
	f.engine = f.newEngine(f.kv)
	return f
}

// newEngine creates another engine against the same backend, as a second
// device or a restarted process would be.
func (f *fixture) newEngine(kv postify.KeyValueStore) *postify.Engine {
	return postify.NewEngine(f.backend, kv, postify.NewNopLogger(), postify.Options{Clock: testutil.FixedClock()})
}

func (f *fixture) loginAs(t *testing.T, e *postify.Engine, u postify.User) {
	t.Helper()
	passwords := map[string]string{"1": "alice-pw", "2": "bob-pw"}
	if _, err := e.Login(t.Context(), u.Email, passwords[u.ID]); err != nil {
		t.Fatalf("Login(%s) error = %v", u.Username, err)
	}
}
