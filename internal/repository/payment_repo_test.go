package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLookupExcludesSoftDeletedRows(t *testing.T) {
	db, lastSQL := newDryRunDB(t)
	repo := NewPaymentRepository(db)

	_, err := repo.FindByMerchantTradeNo(context.Background(), "f0a0d7e9fae1bb72bc93")
	require.NoError(t, err)
	assert.Contains(t, *lastSQL, "`payments`.`deleted_at` IS NULL")
	assert.Contains(t, *lastSQL, "merchant_trade_no")
}
