package inbox_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/inbox"
)

func githubHeaders(secret string, body []byte) http.Header {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	header := http.Header{}
	header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	header.Set("X-GitHub-Event", "push")
	return header
}

func TestGitHubVerifier(t *testing.T) {
	t.Parallel()

	const secret = "gh_webhook_secret"
	body := []byte(`{"ref":"refs/heads/main","commits":[]}`)

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		identity, err := verifier.Verify(githubHeaders(secret, body), body)
		require.NoError(t, err)
		assert.Equal(t, "72d3162e-cc78-11e3-81ab-4c9367dc0958", identity.EventID)
		assert.Equal(t, "push", identity.EventType)
	})

	t.Run("provider slug", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "github", inbox.NewGitHubVerifier(secret).Provider())
	})

	t.Run("missing signature header", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		header := githubHeaders(secret, body)
		header.Del("X-Hub-Signature-256")
		_, err := verifier.Verify(header, body)
		assert.ErrorIs(t, err, inbox.ErrInvalidSignature)
	})

	t.Run("malformed signature prefix", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		header := githubHeaders(secret, body)
		header.Set("X-Hub-Signature-256", "sha1=deadbeef")
		_, err := verifier.Verify(header, body)
		assert.ErrorIs(t, err, inbox.ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		_, err := verifier.Verify(githubHeaders("other_secret", body), body)
		assert.ErrorIs(t, err, inbox.ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		_, err := verifier.Verify(githubHeaders(secret, body), []byte(`{"ref":"refs/heads/evil"}`))
		assert.ErrorIs(t, err, inbox.ErrInvalidSignature)
	})

	t.Run("missing delivery id", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGitHubVerifier(secret)
		header := githubHeaders(secret, body)
		header.Del("X-GitHub-Delivery")
		_, err := verifier.Verify(header, body)
		assert.ErrorIs(t, err, inbox.ErrMissingIdentity)
	})
}

func TestGenericVerifier(t *testing.T) {
	t.Parallel()

	t.Run("extracts identity from body", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGenericVerifier("internal")
		assert.Equal(t, "internal", verifier.Provider())

		identity, err := verifier.Verify(http.Header{}, []byte(`{"id":"evt_9","event_type":"sync.done"}`))
		require.NoError(t, err)
		assert.Equal(t, "evt_9", identity.EventID)
		assert.Equal(t, "sync.done", identity.EventType)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGenericVerifier("internal")
		_, err := verifier.Verify(http.Header{}, []byte(`{"event_type":"sync.done"}`))
		assert.ErrorIs(t, err, inbox.ErrMissingIdentity)
	})

	t.Run("unparsable body", func(t *testing.T) {
		t.Parallel()

		verifier := inbox.NewGenericVerifier("internal")
		_, err := verifier.Verify(http.Header{}, []byte(`<xml/>`))
		assert.ErrorIs(t, err, inbox.ErrInvalidPayload)
	})
}
