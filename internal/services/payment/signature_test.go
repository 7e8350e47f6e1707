package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotly/internal/status"
)

func TestVerifySignature_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_completed"}`)
	header := SignPayload("whsec_test", payload, time.Now())

	err := VerifySignature("whsec_test", payload, header, DefaultSignatureTolerance)
	assert.NoError(t, err)
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_completed"}`)
	header := SignPayload("whsec_test", payload, time.Now())

	err := VerifySignature("whsec_test", []byte(`{"id":"evt_2"}`), header, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, status.ErrSignatureVerification)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload("whsec_test", payload, time.Now())

	err := VerifySignature("whsec_other", payload, header, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, status.ErrSignatureVerification)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload("whsec_test", payload, time.Now().Add(-10*time.Minute))

	err := VerifySignature("whsec_test", payload, header, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, status.ErrSignatureVerification)
}

func TestVerifySignature_FutureTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload("whsec_test", payload, time.Now().Add(10*time.Minute))

	err := VerifySignature("whsec_test", payload, header, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, status.ErrSignatureVerification)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	for _, header := range []string{"", "t=123", "v1=abc", "garbage"} {
		err := VerifySignature("whsec_test", payload, header, DefaultSignatureTolerance)
		assert.ErrorIs(t, err, status.ErrSignatureVerification, "header %q", header)
	}
}

func TestVerifySignature_NonNumericTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	err := VerifySignature("whsec_test", payload, "t=abc,v1=deadbeef", DefaultSignatureTolerance)
	assert.ErrorIs(t, err, status.ErrSignatureVerification)
}

func TestSignPayload_HeaderShape(t *testing.T) {
	header := SignPayload("whsec_test", []byte("{}"), time.Unix(1700000000, 0))

	require.Contains(t, header, "t=1700000000,")
	require.Contains(t, header, "v1=")
}
