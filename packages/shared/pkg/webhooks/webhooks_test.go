package webhooks

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC)

func batchAt(ts time.Time) []byte {
	return fmt.Appendf(nil,
		"{\"topic\":\"console\",\"timestamp\":%d}\n{\"topic\":\"console\",\"timestamp\":1}\n",
		ts.UnixMilli(),
	)
}

func newTestAuthenticator(secret string, skew time.Duration) *Authenticator {
	a := NewAuthenticator(secret, skew)
	a.Now = func() time.Time { return fixedNow }

	return a
}

func TestVerify_NoConfigAcceptsAnything(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("", 0)

	require.NoError(t, a.Verify([]byte("not even json"), ""))
	require.NoError(t, a.Verify(nil, "sha256=deadbeef"))
}

func TestVerify_Signature(t *testing.T) {
	t.Parallel()

	const secret = "s3cr3t"
	body := batchAt(fixedNow)
	a := newTestAuthenticator(secret, 0)

	tests := []struct {
		name   string
		body   []byte
		header string
		want   error
	}{
		{name: "valid", body: body, header: Sign(secret, body)},
		{name: "missing header", body: body, header: "", want: ErrMissingSignature},
		{name: "wrong secret", body: body, header: Sign("other", body), want: ErrInvalidSignature},
		{name: "tampered body", body: append([]byte(" "), body...), header: Sign(secret, body), want: ErrInvalidSignature},
		{name: "missing prefix", body: body, header: Sign(secret, body)[len(SignaturePrefix):], want: ErrInvalidSignature},
		{name: "not hex", body: body, header: "sha256=zz", want: ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := a.Verify(tt.body, tt.header)
			if tt.want == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerify_MissingAndInvalidAreDistinguishable(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("s3cr3t", 0)
	body := batchAt(fixedNow)

	missing := a.Verify(body, "")
	invalid := a.Verify(body, "sha256=00")

	assert.ErrorIs(t, missing, ErrMissingSignature)
	assert.NotErrorIs(t, missing, ErrInvalidSignature)
	assert.ErrorIs(t, invalid, ErrInvalidSignature)
	assert.NotErrorIs(t, invalid, ErrMissingSignature)
}

func TestVerify_Skew(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("", 300*time.Second)

	require.NoError(t, a.Verify(batchAt(fixedNow.Add(-200*time.Second)), ""))
	require.NoError(t, a.Verify(batchAt(fixedNow.Add(time.Minute)), ""))
	require.ErrorIs(t, a.Verify(batchAt(fixedNow.Add(-400*time.Second)), ""), ErrExpired)

	// Only the first event is inspected.
	require.NoError(t, a.Verify(append([]byte("\n\n"), batchAt(fixedNow)...), ""))
}

func TestVerify_SkewRunsBeforeSignature(t *testing.T) {
	t.Parallel()

	const secret = "s3cr3t"
	a := newTestAuthenticator(secret, 300*time.Second)

	stale := batchAt(fixedNow.Add(-time.Hour))
	require.ErrorIs(t, a.Verify(stale, Sign(secret, stale)), ErrExpired)
	require.ErrorIs(t, a.Verify(stale, ""), ErrExpired)

	fresh := batchAt(fixedNow)
	require.NoError(t, a.Verify(fresh, Sign(secret, fresh)))
}

func TestVerify_SkewUnreadableFirstLine(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("", time.Minute)

	require.ErrorIs(t, a.Verify([]byte("{oops\n"), ""), ErrMalformedBody)
	require.ErrorIs(t, a.Verify([]byte("\n"), ""), ErrMalformedBody)
	require.ErrorIs(t, a.Verify([]byte(`{"topic":"console"}`), ""), ErrExpired)
}

func TestSign(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"sha256=18c4b268f0bbf8471eda56af3e70b1d4613d734dc538b4940b59931c412a1591",
		Sign("test-key", []byte("hello world")),
	)
}
