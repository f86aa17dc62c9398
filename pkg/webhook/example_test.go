package webhook_test

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/webhook"
)

// ExampleSign demonstrates signing and verifying a payload
func ExampleSign() {
	secret := "whsec_example"
	payload := []byte(`{"event":"payment.success","amount":100}`)
	ts := time.Unix(1700000000, 0)

	signature, err := webhook.Sign(secret, payload, ts)
	if err != nil {
		panic(err)
	}
	fmt.Println(signature[:12] + ",v1=...")

	// The receiver recomputes the HMAC from the raw body and its copy
	// of the secret (zero tolerance here because the example timestamp
	// is fixed in the past)
	if err := webhook.Verify(secret, payload, signature, 0); err != nil {
		panic(err)
	}
	fmt.Println("verified")

	// Output:
	// t=1700000000,v1=...
	// verified
}

// ExampleMatchEvent demonstrates subscription pattern matching
func ExampleMatchEvent() {
	patterns := []string{"payment.*", "user.created"}

	fmt.Println(webhook.MatchEvent(patterns, "payment.success"))
	fmt.Println(webhook.MatchEvent(patterns, "user.created"))
	fmt.Println(webhook.MatchEvent(patterns, "user.deleted"))
	fmt.Println(webhook.MatchEvent([]string{"*"}, "anything"))

	// Output:
	// true
	// true
	// false
	// true
}
