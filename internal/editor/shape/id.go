package shape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// Shape Identity
// ============================================================

const draftPrefix = "draft-"

// ID identifies a shape. It is either a draft token created locally or an
// integer assigned by the layer service; the zero value is neither.
type ID struct {
	token  string
	server int64
}

// NewDraftID returns a fresh draft token. Tokens are never reused.
func NewDraftID() ID {
	return ID{token: draftPrefix + uuid.NewString()}
}

// ServerID wraps an id assigned by the layer service.
func ServerID(n int64) ID {
	return ID{server: n}
}

// ParseID reverses String.
func ParseID(s string) (ID, error) {
	if strings.HasPrefix(s, draftPrefix) && len(s) > len(draftPrefix) {
		return ID{token: s}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return ID{}, fmt.Errorf("invalid shape id %q", s)
	}
	return ServerID(n), nil
}

func (id ID) IsZero() bool { return id.token == "" && id.server == 0 }

// IsDraft reports whether the shape has not been acknowledged by the server.
func (id ID) IsDraft() bool { return id.token != "" }

// Server returns the server-assigned id, if any. Non-positive ids are never
// valid layer ids.
func (id ID) Server() (int64, bool) {
	if id.IsDraft() || id.server <= 0 {
		return 0, false
	}
	return id.server, true
}

func (id ID) String() string {
	if id.IsDraft() {
		return id.token
	}
	return strconv.FormatInt(id.server, 10)
}
