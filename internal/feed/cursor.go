package feed

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"refto/internal/store"
)

// EncodeCursor turns a seek position into an opaque, URL-safe token. The
// token carries both ordering columns so that resuming never depends on
// the anchor row still being visible.
func EncodeCursor(s store.Seek) string {
	raw := strconv.FormatInt(s.CreatedAt.UnixNano(), 10) + ":" + s.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. Any malformed
// input yields an error wrapping ErrInvalidCursor.
func DecodeCursor(token string) (store.Seek, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return store.Seek{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return store.Seek{}, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}

	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return store.Seek{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}

	siteID, err := uuid.Parse(id)
	if err != nil {
		return store.Seek{}, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}

	return store.Seek{CreatedAt: time.Unix(0, nanos).UTC(), ID: siteID}, nil
}
