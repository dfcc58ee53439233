package invoices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		ok       bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusPaid, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusOverdue, false},
		{StatusSent, StatusOverdue, true},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusDraft, false},
		{StatusOverdue, StatusPaid, true},
		{StatusOverdue, StatusSent, false},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusSent, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.True(t, StatusPaid.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusDraft.Terminal())
	require.False(t, StatusSent.Terminal())
	require.False(t, StatusOverdue.Terminal())
}

func TestValidStatus(t *testing.T) {
	require.True(t, ValidStatus(StatusDraft))
	require.False(t, ValidStatus(InvoiceStatus("archived")))
}
