package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spotly/internal/status"
)

// DefaultSignatureTolerance bounds how old a signed webhook timestamp may be
// before it is rejected as a possible replay.
const DefaultSignatureTolerance = 5 * time.Minute

// SignPayload produces a signature header for the given payload, in the
// provider's "t=<unix>,v1=<hex hmac-sha256>" format. The HMAC covers
// "<t>.<payload>". Exposed so tests and the sandbox simulator can produce
// valid deliveries.
func SignPayload(secret string, payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, computeSignature(secret, payload, ts))
}

// VerifySignature validates a signature header against the raw payload.
func VerifySignature(secret string, payload []byte, header string, tolerance time.Duration) error {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return status.ErrSignatureVerification
	}
	if d := time.Since(time.Unix(unix, 0)); d > tolerance || d < -tolerance {
		return status.ErrSignatureVerification
	}

	expected := computeSignature(secret, payload, ts)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return status.ErrSignatureVerification
	}

	return nil
}

func computeSignature(secret string, payload []byte, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return "", "", status.ErrSignatureVerification
	}
	return ts, sig, nil
}
