package inbox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// GitHub webhook headers
const (
	githubSignatureHeader = "X-Hub-Signature-256"
	githubDeliveryHeader  = "X-GitHub-Delivery"
	githubEventHeader     = "X-GitHub-Event"
)

// GitHubVerifier validates GitHub webhook signatures:
// "sha256=" + hex(HMAC-SHA256(secret, raw_body)). The event identity comes
// from the delivery headers, not the body.
type GitHubVerifier struct {
	secret string
}

// NewGitHubVerifier creates a verifier for the repository or organization
// webhook secret
func NewGitHubVerifier(secret string) *GitHubVerifier {
	return &GitHubVerifier{secret: secret}
}

func (v *GitHubVerifier) Provider() string {
	return "github"
}

func (v *GitHubVerifier) Verify(header http.Header, body []byte) (Identity, error) {
	signature := header.Get(githubSignatureHeader)
	if signature == "" {
		return Identity{}, fmt.Errorf("%w: missing %s header", ErrInvalidSignature, githubSignatureHeader)
	}

	expected, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return Identity{}, fmt.Errorf("%w: malformed %s header", ErrInvalidSignature, githubSignatureHeader)
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(expected)) {
		return Identity{}, ErrInvalidSignature
	}

	deliveryID := header.Get(githubDeliveryHeader)
	if deliveryID == "" {
		return Identity{}, fmt.Errorf("%w: missing %s header", ErrMissingIdentity, githubDeliveryHeader)
	}

	return Identity{
		EventID:   deliveryID,
		EventType: header.Get(githubEventHeader),
	}, nil
}
