package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fnscope/infra/packages/shared/pkg/keys"
)

const (
	SignatureHeader = "x-webhook-signature"
	SignaturePrefix = "sha256="
)

var (
	ErrMalformedBody = errors.New("malformed webhook body")
	ErrExpired       = errors.New("webhook request expired")
	ErrUnauthorized  = errors.New("unauthorized webhook request")

	ErrMissingSignature = fmt.Errorf("%w: missing signature", ErrUnauthorized)
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrUnauthorized)
)

// Authenticator checks signed webhook deliveries. A zero MaxSkew disables the
// replay check and an empty Secret disables the signature check.
type Authenticator struct {
	Secret  string
	MaxSkew time.Duration
	Now     func() time.Time
}

func NewAuthenticator(secret string, maxSkew time.Duration) *Authenticator {
	return &Authenticator{
		Secret:  secret,
		MaxSkew: maxSkew,
		Now:     time.Now,
	}
}

// Verify authenticates the raw request body. The skew check runs before the signature check.
func (a *Authenticator) Verify(body []byte, signatureHeader string) error {
	if a.MaxSkew > 0 {
		if err := a.checkSkew(body); err != nil {
			return err
		}
	}

	if a.Secret == "" {
		return nil
	}

	if signatureHeader == "" {
		return ErrMissingSignature
	}

	digest, ok := strings.CutPrefix(signatureHeader, SignaturePrefix)
	if !ok {
		return fmt.Errorf("%w: expected %s prefix", ErrInvalidSignature, SignaturePrefix)
	}

	valid, err := keys.NewHMACSHA256Hashing([]byte(a.Secret)).Verify(body, digest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	if !valid {
		return ErrInvalidSignature
	}

	return nil
}

func (a *Authenticator) checkSkew(body []byte) error {
	line := firstLine(body)
	if len(line) == 0 {
		return fmt.Errorf("%w: empty batch", ErrMalformedBody)
	}

	var head struct {
		Timestamp *float64 `json:"timestamp"`
	}

	if err := json.Unmarshal(line, &head); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}

	// A first event without a timestamp cannot prove freshness.
	if head.Timestamp == nil {
		return fmt.Errorf("%w: first event has no timestamp", ErrExpired)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	sent := time.UnixMilli(int64(*head.Timestamp))
	if sent.Before(now().Add(-a.MaxSkew)) {
		return fmt.Errorf("%w: sent at %s", ErrExpired, sent.UTC().Format(time.RFC3339))
	}

	return nil
}

// firstLine returns the first non-blank line of a newline delimited batch.
func firstLine(body []byte) []byte {
	for len(body) > 0 {
		line, rest, _ := bytes.Cut(body, []byte("\n"))
		if line = bytes.TrimSpace(line); len(line) > 0 {
			return line
		}

		body = rest
	}

	return nil
}

// Sign produces the signature header value for body.
func Sign(secret string, body []byte) string {
	digest := keys.NewHMACSHA256Hashing([]byte(secret)).Hash(body)

	return SignaturePrefix + digest
}
