package redact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

func sampleReceipt() *types.Receipt {
	return &types.Receipt{
		Merchant: types.Merchant{
			Phone: types.Ptr("02 9000 1234"),
			ABN:   types.Ptr("51 824 753 556"),
		},
		Payments: []types.PaymentDetail{
			{MaskedCard: types.Ptr("**** *1234"), RawMethod: types.Ptr("VISA (**** 1234)")},
			{MaskedCard: types.Ptr("4111 1111 1111 9876")},
			{RawMethod: types.Ptr("Cash")},
		},
		LoyaltyPrograms: []types.LoyaltyProgram{{MaskedID: types.Ptr("****5678")}},
	}
}

func TestRedactMasksFields(t *testing.T) {
	r := sampleReceipt()
	require.NoError(t, Redact(r, Options{}))

	assert.Equal(t, "****1234", *r.Merchant.Phone)
	assert.Equal(t, "****3556", *r.Merchant.ABN)
	assert.Equal(t, "**** 1234", *r.Payments[0].MaskedCard)
	assert.Equal(t, "**** 9876", *r.Payments[1].MaskedCard)
	assert.Nil(t, r.Payments[2].MaskedCard)
}

func TestRedactIdempotent(t *testing.T) {
	once := sampleReceipt()
	require.NoError(t, Redact(once, Options{}))

	twice := sampleReceipt()
	require.NoError(t, Redact(twice, Options{}))
	require.NoError(t, Redact(twice, Options{}))

	assert.Equal(t, once, twice)
}

func TestRedactShortFieldsUnchanged(t *testing.T) {
	r := &types.Receipt{Merchant: types.Merchant{Phone: types.Ptr("13 13"), ABN: types.Ptr("12345")}}
	require.NoError(t, Redact(r, Options{}))

	assert.Equal(t, "13 13", *r.Merchant.Phone)
	assert.Equal(t, "12345", *r.Merchant.ABN)
}

func TestRedactEnforce(t *testing.T) {
	r := sampleReceipt()
	assert.NoError(t, Redact(r, Options{Enforce: true}))

	r = sampleReceipt()
	r.Payments[2].RawMethod = types.Ptr("VISA 4111-1111-1111-1111")

	err := Redact(r, Options{Enforce: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPIIViolation))

	var pii *PIIViolationError
	require.True(t, errors.As(err, &pii))
	assert.Equal(t, []string{"payments.2.rawMethod"}, pii.Fields)
	assert.Contains(t, err.Error(), "payments.2.rawMethod")
}

func TestRedactLoyaltyPrograms(t *testing.T) {
	r := sampleReceipt()
	r.LoyaltyPrograms = []types.LoyaltyProgram{{
		Name:        types.Ptr("Harbour Rewards"),
		Description: types.Ptr("Points earned: 45\nLoyalty ID: 6014 3322 1100"),
		MaskedID:    types.Ptr("6014 3322 1100"),
	}}

	require.NoError(t, Redact(r, Options{Enforce: true}))
	assert.Equal(t, "****1100", *r.LoyaltyPrograms[0].MaskedID)
	assert.Equal(t, "Points earned: 45\nLoyalty ID: ****1100", *r.LoyaltyPrograms[0].Description)

	again := *r.LoyaltyPrograms[0].Description
	require.NoError(t, Redact(r, Options{}))
	assert.Equal(t, again, *r.LoyaltyPrograms[0].Description)
}

func TestEnforceScansLoyaltyDescription(t *testing.T) {
	r := &types.Receipt{LoyaltyPrograms: []types.LoyaltyProgram{{
		Description: types.Ptr("Member 6014-3322-1100-77"),
		MaskedID:    types.Ptr("****1100"),
	}}}

	var pii *PIIViolationError
	require.True(t, errors.As(Enforce(r), &pii))
	assert.Equal(t, []string{"loyaltyPrograms.0.description"}, pii.Fields)
}

func TestEnforceWithoutRedaction(t *testing.T) {
	err := Enforce(sampleReceipt())
	var pii *PIIViolationError
	require.True(t, errors.As(err, &pii))
	assert.Equal(t, []string{"merchant.phone", "merchant.abn", "payments.1.maskedCard"}, pii.Fields)
}

func TestRedactNil(t *testing.T) {
	assert.NoError(t, Redact(nil, Options{Enforce: true}))
}
