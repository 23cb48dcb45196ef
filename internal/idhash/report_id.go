package idhash

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"underwriting-lab/internal/domain"
)

// ComputeReportID computes a deterministic report id using SHA256.
// Formula: SHA256(tenant_id|address|created_at|inputs_json)
// Returns the base58-encoded hash (43-44 characters).
func ComputeReportID(tenantID, address string, createdAt int64, inputs *domain.DealInputs) (string, error) {
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}

	data := fmt.Sprintf("%s|%s|%d|%s",
		tenantID,
		address,
		createdAt,
		inputsJSON,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:]), nil
}
