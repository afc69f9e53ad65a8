package fna

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftApplyCoercesNumbers(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.Set(FieldLiDebt, ""))
	require.NoError(t, d.Set(FieldLiIncome, "1200"))
	require.NoError(t, d.Set(FieldLiMortgage, "0"))
	require.NoError(t, d.Set(FieldMoreChildrenCount, "2"))

	h, err := d.Apply(NewHeader("h1", "c1", time.Now()))
	require.NoError(t, err)

	assert.False(t, h.Insurance.Debt.Valid)
	require.True(t, h.Insurance.IncomeReplacement.Valid)
	assert.True(t, h.Insurance.IncomeReplacement.Decimal.Equal(decimal.NewFromInt(1200)))
	require.True(t, h.Insurance.Mortgage.Valid)
	assert.True(t, h.Insurance.Mortgage.Decimal.IsZero())
	assert.EqualValues(t, 2, h.Family.MoreChildrenCount.Int64)
	assert.Equal(t, "h1", h.ID)
	assert.Equal(t, "c1", h.ClientID)
}

func TestDraftApplyReportsEveryBadField(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.Set(FieldLiDebt, "lots"))
	require.NoError(t, d.Set(FieldNextAppointmentDate, "tomorrow"))
	base := NewHeader("h1", "c1", time.Now())

	h, err := d.Apply(base)
	require.Error(t, err)
	assert.Equal(t, base, h)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, err.Error(), "Debt to cover ($)")
	assert.Contains(t, err.Error(), "Next appt date (YYYY-MM-DD)")
}

func TestDraftSetTriState(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, Unknown, d.Flag(FieldHasOld401k))

	require.NoError(t, d.Set(FieldHasOld401k, true))
	assert.Equal(t, Yes, d.Flag(FieldHasOld401k))

	require.NoError(t, d.Set(FieldHasOld401k, No))
	assert.Equal(t, No, d.Flag(FieldHasOld401k))

	require.NoError(t, d.Set(FieldHasOld401k, (*bool)(nil)))
	assert.Equal(t, Unknown, d.Flag(FieldHasOld401k))
}

func TestDraftSetRejectsMismatchedKinds(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.Set(FieldHasOld401k, "yes"), ErrFieldKind)
	assert.ErrorIs(t, d.Set(FieldSpouseName, true), ErrFieldKind)
	assert.ErrorIs(t, d.Set(Field("shoe_size"), "9"), ErrUnknownField)
}

func TestDraftSetTouchesOneField(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.Set(FieldCity, "Austin"))
	require.NoError(t, d.Set(FieldSpouseName, "Jordan"))
	assert.Equal(t, "Austin", d.Text(FieldCity))
	assert.Equal(t, "Jordan", d.Text(FieldSpouseName))
	assert.Empty(t, d.Text(FieldState))
}

func TestDraftFromHeaderRoundTrip(t *testing.T) {
	h := NewHeader("h1", "c1", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	h.Household.SpouseName = "Jordan"
	h.Family.MoreChildrenPlanned = Yes
	h.Insurance.Education = decimal.NewNullDecimal(decimal.NewFromInt(40000))
	h.Income.NextAppointmentTime.String, h.Income.NextAppointmentTime.Valid = "14:30", true

	d := DraftFromHeader(h)
	assert.Equal(t, "Jordan", d.Text(FieldSpouseName))
	assert.Equal(t, "40000", d.Text(FieldLiEducation))
	assert.Equal(t, Yes, d.Flag(FieldMoreChildrenPlanned))

	got, err := d.Apply(h)
	require.NoError(t, err)
	assert.Equal(t, h.Household, got.Household)
	assert.Equal(t, h.Family, got.Family)
	assert.True(t, got.Insurance.Education.Decimal.Equal(h.Insurance.Education.Decimal))
	assert.Equal(t, h.Income.NextAppointmentTime, got.Income.NextAppointmentTime)
}

func TestFieldsForTab(t *testing.T) {
	assert.Empty(t, FieldsFor(TabLiabilities))
	total := 0
	for _, tab := range Tabs {
		for _, spec := range FieldsFor(tab) {
			assert.Equal(t, tab, spec.Tab)
			total++
		}
	}
	assert.Equal(t, len(Fields()), total)
}
