package confirmation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	pkgredis "github.com/rowncoffee/rown-backend/pkg/redis"
)

// Handoff keeps one confirmation snapshot per session. Each Store overwrites
// the previous one and reads leave it in place.
type Handoff struct {
	store pkgredis.SessionStore
	ttl   time.Duration
}

func NewHandoff(store pkgredis.SessionStore, ttl time.Duration) (*Handoff, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("handoff ttl must be positive")
	}
	return &Handoff{store: store, ttl: ttl}, nil
}

func (h *Handoff) Store(ctx context.Context, sessionID string, snapshot Snapshot) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode confirmation")
	}
	if err := h.store.Set(ctx, h.store.HandoffKey(sessionID), string(payload), h.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store confirmation")
	}
	return nil
}

// Take returns the last stored snapshot for the session.
func (h *Handoff) Take(ctx context.Context, sessionID string) (*Snapshot, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}

	raw, err := h.store.Get(ctx, h.store.HandoffKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, errNoRecentOrder()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load confirmation")
	}
	if raw == "" {
		return nil, errNoRecentOrder()
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no recent order")
	}
	return &snapshot, nil
}

func errNoRecentOrder() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no recent order")
}
