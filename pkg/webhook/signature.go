package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature header names used on outbound requests
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderEventID   = "X-Webhook-ID"
)

// Sign computes the signature header value for a payload at a given moment:
//
//	t=<unix_ts>,v1=<hex(HMAC-SHA256(secret, "<unix_ts>.<payload>"))>
//
// The timestamp is bound into the signed material so a captured request
// cannot be replayed outside the verification tolerance. Sign is
// deterministic for a fixed (secret, payload, ts) triple.
func Sign(secret string, payload []byte, ts time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	unix := ts.Unix()
	return fmt.Sprintf("t=%d,v1=%s", unix, computeHMAC(secret, unix, payload)), nil
}

// Verify checks a signature header against the payload.
//
// The comparison is constant-time. When tolerance is positive, signatures
// whose timestamp is further than tolerance from now (either direction) are
// rejected with ErrSignatureExpired.
func Verify(secret string, payload []byte, header string, tolerance time.Duration) error {
	if secret == "" {
		return ErrMissingSecret
	}

	ts, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("%w: signed %v ago", ErrSignatureExpired, age)
		}
	}

	expected := computeHMAC(secret, ts, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// parseSignatureHeader splits "t=<ts>,v1=<hex>" into its parts
func parseSignatureHeader(header string) (ts int64, signature string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
		case "v1":
			signature = value
		}
	}

	if ts == 0 || signature == "" {
		return 0, "", fmt.Errorf("%w: missing t or v1 component", ErrInvalidSignature)
	}

	return ts, signature, nil
}

func computeHMAC(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
