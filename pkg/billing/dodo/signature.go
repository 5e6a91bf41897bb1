package dodo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/contractai/backend/pkg/billing"
)

const (
	secretPrefix       = "whsec_"
	timestampTolerance = 5 * time.Minute
)

// decodeSecret strips the whsec_ prefix and base64-decodes the signing key.
func decodeSecret(secret string) ([]byte, error) {
	raw := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding webhook secret: %w", err)
	}
	return key, nil
}

// verifySignature checks a standard-webhooks signature over the raw body.
// The signed content is "{id}.{timestamp}.{body}" and the signature header
// holds one or more space-separated "v1,<base64>" candidates.
func verifySignature(secret, msgID, timestamp, signatureHeader string, body []byte, now time.Time) error {
	if msgID == "" || timestamp == "" || signatureHeader == "" {
		return fmt.Errorf("%w: missing headers", billing.ErrInvalidWebhookSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp: %v", billing.ErrInvalidWebhookSignature, err)
	}
	sent := time.Unix(ts, 0)
	if diff := now.Sub(sent); diff > timestampTolerance || diff < -timestampTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", billing.ErrInvalidWebhookSignature)
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Split(signatureHeader, " ") {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching candidate", billing.ErrInvalidWebhookSignature)
}
