package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-training/netatmo-dashboard/pkg/store"
)

func issueState(t *testing.T, guard *Guard) (string, *http.Request) {
	t.Helper()
	w := httptest.NewRecorder()
	state, err := guard.Issue(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Carry the session cookie into the callback request
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return state, r
}

func TestGuard_Issue(t *testing.T) {
	guard := NewGuard(store.NewMemoryStore(false))

	state, _ := issueState(t, guard)

	// 32 random bytes, hex encoded
	if len(state) != 64 {
		t.Errorf("State length = %d, want 64", len(state))
	}

	other, _ := issueState(t, guard)
	if state == other {
		t.Error("Two issued states must not collide")
	}
}

func TestGuard_Verify(t *testing.T) {
	guard := NewGuard(store.NewMemoryStore(false))

	state, r := issueState(t, guard)

	if !guard.Verify(httptest.NewRecorder(), r, state) {
		t.Error("Expected matching state to verify")
	}

	// The state is consumed on first verify, matching or not
	if guard.Verify(httptest.NewRecorder(), r, state) {
		t.Error("Expected replayed state to fail")
	}
}

func TestGuard_Verify_Mismatch(t *testing.T) {
	guard := NewGuard(store.NewMemoryStore(false))

	_, r := issueState(t, guard)

	if guard.Verify(httptest.NewRecorder(), r, "forged-state") {
		t.Error("Expected forged state to fail")
	}

	// The mismatch consumed the stored state, so nothing verifies now
	state2, r2 := issueState(t, guard)
	if guard.Verify(httptest.NewRecorder(), r2, "wrong") {
		t.Error("Expected mismatch to fail")
	}
	if guard.Verify(httptest.NewRecorder(), r2, state2) {
		t.Error("Expected correct value to fail after a failed attempt consumed it")
	}
}

func TestGuard_Verify_NoPendingState(t *testing.T) {
	guard := NewGuard(store.NewMemoryStore(false))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if guard.Verify(httptest.NewRecorder(), r, "anything") {
		t.Error("Expected verify without a pending state to fail")
	}
}

func TestGuard_Verify_EmptyPresented(t *testing.T) {
	guard := NewGuard(store.NewMemoryStore(false))

	_, r := issueState(t, guard)
	if guard.Verify(httptest.NewRecorder(), r, "") {
		t.Error("Expected empty presented state to fail")
	}
}
