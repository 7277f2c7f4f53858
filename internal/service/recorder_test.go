// internal/service/recorder_test.go
package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	senderWallet = "0x1111111111111111111111111111111111111111"
	aliceWallet  = "0x2222222222222222222222222222222222222222"
	bobWallet    = "0x3333333333333333333333333333333333333333"
)

func TestRecordPayment_CreditsRegisteredUser(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", aliceWallet, decimal.Zero)
	recorder := env.recorder()

	payment, err := recorder.RecordPayment(context.Background(), senderWallet, "alice", decimal.RequireFromString("2.5"), "0xdeposit1")

	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, "alice", payment.RecipientUsername)
	assert.Equal(t, senderWallet, payment.SenderAddress)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("2.5")))

	assert.True(t, env.balanceOf("alice").Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 1, env.notifier.count())
}

func TestRecordPayment_DuplicateTxHashIsNoOp(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", aliceWallet, decimal.Zero)
	recorder := env.recorder()
	amount := decimal.RequireFromString("2.5")

	first, err := recorder.RecordPayment(context.Background(), senderWallet, "alice", amount, "0xdup")
	require.NoError(t, err)

	second, err := recorder.RecordPayment(context.Background(), senderWallet, "alice", amount, "0xdup")
	require.NoError(t, err)
	require.NotNil(t, second)

	// Same entry back, balance credited exactly once, no second notification.
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, env.balanceOf("alice").Equal(amount))
	assert.Len(t, env.paymentsFor("alice"), 1)
	assert.Equal(t, 1, env.notifier.count())
}

func TestRecordPayment_ImplicitRecipientFromHandle(t *testing.T) {
	env := newTestEnv()
	recorder := env.recorder()

	payment, err := recorder.RecordPayment(context.Background(), senderWallet, "New-User!", decimal.NewFromInt(1), "0xfirst")

	require.NoError(t, err)
	assert.Equal(t, "newuser", payment.RecipientUsername)
	assert.True(t, env.balanceOf("newuser").Equal(decimal.NewFromInt(1)))
}

func TestRecordPayment_UnregisteredWalletGetsPlaceholder(t *testing.T) {
	env := newTestEnv()
	recorder := env.recorder()

	payment, err := recorder.RecordPayment(context.Background(), senderWallet, bobWallet, decimal.NewFromInt(3), "0xwallet")

	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderUsername(bobWallet), payment.RecipientUsername)
	assert.True(t, env.balanceOf(domain.PlaceholderUsername(bobWallet)).Equal(decimal.NewFromInt(3)))
}

func TestRecordPayment_RejectsInvalidInput(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", aliceWallet, decimal.Zero)
	recorder := env.recorder()
	ctx := context.Background()

	_, err := recorder.RecordPayment(ctx, senderWallet, "alice", decimal.Zero, "0xzero")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = recorder.RecordPayment(ctx, senderWallet, "alice", decimal.NewFromInt(-1), "0xneg")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = recorder.RecordPayment(ctx, senderWallet, "alice", decimal.NewFromInt(1), "   ")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = recorder.RecordPayment(ctx, senderWallet, "", decimal.NewFromInt(1), "0xhash")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	assert.True(t, env.balanceOf("alice").IsZero())
	assert.Equal(t, 0, env.notifier.count())
}

func TestRecordPayment_AliasBeatsUsername(t *testing.T) {
	env := newTestEnv()
	env.seedUser("carol", aliceWallet, decimal.Zero)
	env.seedUser("shop", bobWallet, decimal.Zero)
	env.seedLink("shop", "carol", aliceWallet)
	recorder := env.recorder()

	_, err := recorder.RecordPayment(context.Background(), senderWallet, "shop", decimal.NewFromInt(5), "0xalias")

	require.NoError(t, err)
	// The payment link owner gets the credit, not the user named "shop".
	assert.True(t, env.balanceOf("carol").Equal(decimal.NewFromInt(5)))
	assert.True(t, env.balanceOf("shop").IsZero())
}

func TestRecordPayment_ConcurrentCreditsAllLand(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", aliceWallet, decimal.Zero)
	recorder := env.recorder()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := recorder.RecordPayment(context.Background(), senderWallet, "alice", decimal.NewFromInt(1), fmt.Sprintf("0xconc%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.True(t, env.balanceOf("alice").Equal(decimal.NewFromInt(n)))
	assert.Len(t, env.paymentsFor("alice"), n)
}
