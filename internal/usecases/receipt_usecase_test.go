package usecases

import (
	"context"
	"strings"
	"testing"

	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestReceiptVerify_EmptyChain(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)

	result, err := s.receipts.Verify(context.Background(), agent.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, int64(0), result.Checked)
}

func TestReceiptVerify_IntactChain(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	s.settlePayment(t, agent.ID, "acme", 100)
	s.settlePayment(t, agent.ID, "acme", 150)
	s.settlePayment(t, agent.ID, "acme", 200)

	result, err := s.receipts.Verify(context.Background(), agent.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, int64(3), result.Checked)
}

func TestReceiptVerify_TamperedPayment(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	s.settlePayment(t, agent.ID, "acme", 100)
	tampered := s.settlePayment(t, agent.ID, "acme", 150)
	s.settlePayment(t, agent.ID, "acme", 200)

	// Rewriting the settled amount breaks the chain at that receipt.
	mustExec(t, s.db, `UPDATE payments SET amount = 1 WHERE id = ?`, tampered.ID.String())

	result, err := s.receipts.Verify(context.Background(), agent.ID)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, int64(1), result.BrokenAt)
	require.Equal(t, int64(2), result.Checked)
}

func TestReceiptVerify_TamperedReceiptHash(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	payment := s.settlePayment(t, agent.ID, "acme", 100)
	s.settlePayment(t, agent.ID, "acme", 150)

	mustExec(t, s.db, `UPDATE receipts SET hash = 'sha256:0000' WHERE payment_id = ?`, payment.ID.String())

	result, err := s.receipts.Verify(context.Background(), agent.ID)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, int64(0), result.BrokenAt)
}

func TestReceiptGetRow(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	payment := s.settlePayment(t, agent.ID, "acme", 100)
	ctx := context.Background()

	receipt, err := s.receiptRepo.GetByPaymentID(ctx, payment.ID)
	require.NoError(t, err)

	row, err := s.receipts.GetRow(ctx, agent.ID, receipt.ID)
	require.NoError(t, err)
	require.Equal(t, receipt.ID, row.Receipt.ID)
	require.Equal(t, payment.ID, row.Payment.ID)
	require.Equal(t, payment.MandateID, row.Mandate.ID)
	require.Equal(t, "acme", row.Intent.Vendor)

	other, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	_, err = s.receipts.GetRow(ctx, other.ID, receipt.ID)
	requireCode(t, err, 403, domainerrors.CodeForbidden)

	_, err = s.receipts.GetRow(ctx, agent.ID, uuid.New())
	requireCode(t, err, 404, domainerrors.CodeReceiptNotFound)
}

func TestReceiptList_DescendingPages(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	for i := 0; i < 3; i++ {
		s.settlePayment(t, agent.ID, "acme", 100)
	}

	page, total, err := s.receipts.List(context.Background(), agent.ID, utils.PaginationParams{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	require.Equal(t, int64(2), page[0].ChainIndex)
	require.Equal(t, int64(1), page[1].ChainIndex)
}

func TestReceiptRowCSV(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	payment := s.settlePayment(t, agent.ID, "acme", 199)
	ctx := context.Background()

	receipt, err := s.receiptRepo.GetByPaymentID(ctx, payment.ID)
	require.NoError(t, err)
	row, err := s.receipts.GetRow(ctx, agent.ID, receipt.ID)
	require.NoError(t, err)

	out, err := RowCSV(row)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "receipt_id,chain_index,"))
	require.Contains(t, lines[1], receipt.Hash)
	require.Contains(t, lines[1], payment.ID.String())
	require.Contains(t, lines[1], ",199,USD,SETTLED,")
}
