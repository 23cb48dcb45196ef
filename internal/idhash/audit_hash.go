package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"underwriting-lab/internal/domain"
)

// ErrChainBroken is returned when an audit chain fails verification.
var ErrChainBroken = errors.New("audit chain broken")

// ComputeAuditHash computes the chain hash of an audit event using SHA256.
// Formula: SHA256(prev_hash|id|tenant_id|event_type|actor_id|actor_role|created_at|payload_json)
// The payload is canonicalized first so a record read back from a JSON
// column hashes the same as the one written. Returns hex-encoded hash (64 characters).
func ComputeAuditHash(e *domain.AuditEvent) (string, error) {
	payload, err := CanonicalPayload(e.Payload)
	if err != nil {
		return "", err
	}

	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%s",
		e.PrevHash,
		e.ID,
		e.TenantID,
		e.EventType,
		e.ActorID,
		e.ActorRole,
		e.CreatedAt,
		payload,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:]), nil
}

// CanonicalPayload encodes payload with sorted object keys at every depth.
func CanonicalPayload(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode audit payload: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode audit payload: %w", err)
	}
	return out, nil
}

// Seal sets e.PrevHash to prevHash and computes e.Hash.
func Seal(e *domain.AuditEvent, prevHash string) error {
	e.PrevHash = prevHash
	h, err := ComputeAuditHash(e)
	if err != nil {
		return err
	}
	e.Hash = h
	return nil
}

// VerifyChain checks that events, in append order, link to each other and
// that every stored hash matches its content.
func VerifyChain(events []*domain.AuditEvent) error {
	prev := ""
	for i, e := range events {
		if e.PrevHash != prev {
			return fmt.Errorf("%w: event %d (%s) does not link to its predecessor", ErrChainBroken, i, e.ID)
		}
		h, err := ComputeAuditHash(e)
		if err != nil {
			return err
		}
		if h != e.Hash {
			return fmt.Errorf("%w: event %d (%s) content does not match its hash", ErrChainBroken, i, e.ID)
		}
		prev = e.Hash
	}
	return nil
}
