package patterns

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CursorCodec encodes pagination positions as opaque, signed tokens. The
// signature rejects tampered tokens; position state always travels in the
// token itself, never in process-wide scan state.
type CursorCodec struct {
	secret []byte
}

// NewCursorCodec creates a codec signing with the given secret. An empty
// secret falls back to a fixed default so single-node deployments work out
// of the box; set LEGEND_CURSOR_SECRET in production.
func NewCursorCodec(secret string) *CursorCodec {
	if secret == "" {
		secret = "legend-scanner-cursor"
	}
	return &CursorCodec{secret: []byte(secret)}
}

// cursorPayload is the wire form of a pagination position.
type cursorPayload struct {
	AsOf   string `json:"as_of"`
	Ticker string `json:"ticker"`
	Sig    string `json:"sig"`
}

// Encode packs the last-seen ordering key into an opaque token.
func (c *CursorCodec) Encode(asOf time.Time, ticker string) string {
	payload := cursorPayload{
		AsOf:   asOf.UTC().Format(time.RFC3339Nano),
		Ticker: ticker,
	}
	payload.Sig = c.sign(payload.AsOf, payload.Ticker)

	raw, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode unpacks and verifies a token. Any decoding failure, missing field
// or signature mismatch yields ErrInvalidCursor.
func (c *CursorCodec) Decode(token string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if payload.AsOf == "" || payload.Ticker == "" {
		return time.Time{}, "", fmt.Errorf("%w: missing position fields", ErrInvalidCursor)
	}

	want := c.sign(payload.AsOf, payload.Ticker)
	if !hmac.Equal([]byte(want), []byte(payload.Sig)) {
		return time.Time{}, "", fmt.Errorf("%w: signature mismatch", ErrInvalidCursor)
	}

	asOf, err := time.Parse(time.RFC3339Nano, payload.AsOf)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return asOf, payload.Ticker, nil
}

func (c *CursorCodec) sign(asOf, ticker string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(asOf))
	mac.Write([]byte{0})
	mac.Write([]byte(ticker))
	return hex.EncodeToString(mac.Sum(nil)[:12])
}
