package db

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestTransactionsRunAtReadCommitted(t *testing.T) {
	// The counter upsert in invoice creation relies on row-lock queuing,
	// which only resolves cleanly at read committed. A stricter level makes
	// concurrent creates for the same user fail with SQLSTATE 40001.
	require.Equal(t, pgx.ReadCommitted, defaultTxOptions.IsoLevel)
}
