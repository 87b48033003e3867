package database_test

import (
	"context"
	"testing"

	"github.com/SscSPs/billing_backoffice/pkg/database"
	"github.com/stretchr/testify/assert"
)

func TestNewPgxPool_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "unparseable", url: "postgres://%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := database.NewPgxPool(context.Background(), tt.url, database.PoolOptions{})
			assert.Error(t, err)
			assert.Nil(t, pool)
		})
	}
}

func TestClosePgxPool_Nil(t *testing.T) {
	assert.NotPanics(t, func() { database.ClosePgxPool(nil) })
}
