package postify_test

import (
	"bytes"
	"testing"

	"postify/internal/encryption"
	"postify/internal/postify"
	"postify/internal/testutil"
)

func TestSessionStore_LoginAndCurrent(t *testing.T) {
	kv := testutil.NewMemoryKV()
	s := postify.NewSessionStore(kv, nil, postify.NewNopLogger())

	if s.Current() != nil {
		t.Fatal("Current() before login should be nil")
	}

	user := postify.User{ID: "1", Username: "alice"}
	if err := s.Login(user); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	got := s.Current()
	if got == nil || got.ID != "1" || got.Username != "alice" {
		t.Fatalf("Current() = %+v, want alice", got)
	}

	got.Username = "mallory"
	if s.Current().Username != "alice" {
		t.Error("Current() returned a shared pointer; mutation leaked into the store")
	}

	if _, ok, _ := kv.Get(postify.SessionKey); !ok {
		t.Error("session was not persisted under the session key")
	}
}

func TestSessionStore_LoginKeepsMemorySessionWhenPersistFails(t *testing.T) {
	kv := testutil.NewMemoryKV()
	kv.FailPut = true
	s := postify.NewSessionStore(kv, nil, postify.NewNopLogger())

	err := s.Login(postify.User{ID: "1", Username: "alice"})
	if err == nil {
		t.Fatal("Login() expected error when durable store fails")
	}
	if s.Current() == nil {
		t.Error("Current() = nil, want in-memory session despite persist failure")
	}
}

func TestSessionStore_Restore(t *testing.T) {
	t.Run("restores a persisted session", func(t *testing.T) {
		kv := testutil.NewMemoryKV()
		first := postify.NewSessionStore(kv, nil, postify.NewNopLogger())
		if err := first.Login(postify.User{ID: "1", Username: "alice"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		second := postify.NewSessionStore(kv, nil, postify.NewNopLogger())
		got, err := second.Restore()
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got == nil || got.ID != "1" {
			t.Fatalf("Restore() = %+v, want alice", got)
		}
		if second.Current() == nil {
			t.Error("Current() = nil after Restore")
		}
	})

	t.Run("returns nil when nothing is persisted", func(t *testing.T) {
		s := postify.NewSessionStore(testutil.NewMemoryKV(), nil, postify.NewNopLogger())
		got, err := s.Restore()
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got != nil {
			t.Errorf("Restore() = %+v, want nil", got)
		}
	})

	t.Run("discards an unreadable record", func(t *testing.T) {
		kv := testutil.NewMemoryKV()
		if err := kv.Put(postify.SessionKey, []byte("{not json")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		s := postify.NewSessionStore(kv, nil, postify.NewNopLogger())
		got, err := s.Restore()
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got != nil {
			t.Errorf("Restore() = %+v, want nil", got)
		}
		if _, ok, _ := kv.Get(postify.SessionKey); ok {
			t.Error("unreadable record was not removed")
		}
	})
}

func TestSessionStore_EncryptsPersistedRecord(t *testing.T) {
	kv := testutil.NewMemoryKV()
	enc := encryption.NewTestEncryptor()
	s := postify.NewSessionStore(kv, enc, postify.NewNopLogger())

	if err := s.Login(postify.User{ID: "1", Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	raw := kv.Raw(postify.SessionKey)
	if bytes.HasPrefix(raw, []byte("{")) {
		t.Errorf("persisted record is plaintext JSON: %q", raw)
	}

	restored, err := postify.NewSessionStore(kv, enc, postify.NewNopLogger()).Restore()
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored == nil || restored.Username != "alice" {
		t.Errorf("Restore() = %+v, want alice", restored)
	}

	// A store without the key cannot read the record and treats it as absent.
	plain, err := postify.NewSessionStore(kv, nil, postify.NewNopLogger()).Restore()
	if err != nil {
		t.Fatalf("Restore() without encryptor error = %v", err)
	}
	if plain != nil {
		t.Errorf("Restore() without encryptor = %+v, want nil", plain)
	}
}

func TestSessionStore_LogoutRunsHooksInOrder(t *testing.T) {
	kv := testutil.NewMemoryKV()
	s := postify.NewSessionStore(kv, nil, postify.NewNopLogger())

	var order []string
	s.OnLogout(func() {
		if s.Current() != nil {
			t.Error("identity still set when first hook ran")
		}
		order = append(order, "feed")
	})
	s.OnLogout(func() { order = append(order, "interactions") })

	if err := s.Login(postify.User{ID: "1", Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	s.Logout()

	if s.Current() != nil {
		t.Error("Current() after Logout should be nil")
	}
	if _, ok, _ := kv.Get(postify.SessionKey); ok {
		t.Error("persisted session survived Logout")
	}
	if len(order) != 2 || order[0] != "feed" || order[1] != "interactions" {
		t.Errorf("hook order = %v, want [feed interactions]", order)
	}
}
