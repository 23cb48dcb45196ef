package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLOperation(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT id FROM reports", "select"},
		{"\n\t insert into outcomes (id) values ($1)", "insert"},
		{"UPDATE model_versions SET status = $1", "update"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "with"},
		{"SELECT pg_advisory_xact_lock(hashtext($1))", "select"},
		{"CREATE TABLE t (id int)", "other"},
		{"   ", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlOperation(tt.sql), tt.sql)
	}
}
