package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("select id from coupons"))
	assert.Equal(t, "UPDATE", operationFromSQL("  UPDATE coupons SET usage_count = usage_count + 1"))
	assert.Equal(t, "SELECT", operationFromSQL("WITH t AS (SELECT 1) SELECT * FROM t"))
	assert.Equal(t, "INSERT", operationFromSQL("(INSERT INTO orders"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
