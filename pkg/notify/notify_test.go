package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/membership"
	"github.com/platinummonkey/warden/pkg/perm"
)

func testMembership() *membership.Membership {
	now := time.Now()
	return &membership.Membership{
		ID:        "m-1",
		UserID:    "johndoe",
		Reference: membership.Reference{Type: membership.RefAPI, ID: "api-1"},
		Roles:     map[perm.Scope]string{perm.ScopeAPI: "ROLE"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWebhookNotifierPostsSignedEvent(t *testing.T) {
	var gotBody []byte
	var gotSignature, gotEvent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Warden-Signature")
		gotEvent = r.Header.Get("X-Warden-Event")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "s3cret", nil)
	err := notifier.MemberAdded(context.Background(), testMembership(), "johndoe@example.com")
	require.NoError(t, err)

	assert.Equal(t, "member.added", gotEvent)
	assert.True(t, VerifySignature(gotBody, gotSignature, "s3cret"))

	var event memberAddedEvent
	require.NoError(t, json.Unmarshal(gotBody, &event))
	assert.Equal(t, "johndoe@example.com", event.Recipient)
	assert.Equal(t, "johndoe", event.Membership.UserID)
}

func TestWebhookNotifierNoSignatureWithoutSecret(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Warden-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "", nil)
	require.NoError(t, notifier.MemberAdded(context.Background(), testMembership(), "a@b.c"))
	assert.Empty(t, gotSignature)
}

func TestWebhookNotifierNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "", nil)
	err := notifier.MemberAdded(context.Background(), testMembership(), "a@b.c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-2xx")
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	sig := generateSignature([]byte("payload"), "secret")
	assert.True(t, VerifySignature([]byte("payload"), sig, "secret"))
	assert.False(t, VerifySignature([]byte("tampered"), sig, "secret"))
	assert.False(t, VerifySignature([]byte("payload"), sig, "other"))
}

func TestLogNotifierNeverFails(t *testing.T) {
	notifier := NewLogNotifier(nil)
	require.NoError(t, notifier.MemberAdded(context.Background(), testMembership(), "a@b.c"))
}
