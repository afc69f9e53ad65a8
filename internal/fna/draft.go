package fna

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Draft is the in-memory, uncoerced state of a header being edited.
// Text-like fields keep the raw input; tri-state fields keep their answer.
type Draft struct {
	raw   map[Field]string
	flags map[Field]TriState
}

// NewDraft returns a draft with every field unset.
func NewDraft() Draft {
	return Draft{raw: map[Field]string{}, flags: map[Field]TriState{}}
}

// DraftFromHeader seeds a draft from persisted values.
func DraftFromHeader(h Header) Draft {
	d := NewDraft()
	d.raw[FieldSpouseName] = h.Household.SpouseName
	d.raw[FieldAddress] = h.Household.Address
	d.raw[FieldCity] = h.Household.City
	d.raw[FieldState] = h.Household.State
	d.raw[FieldZip] = h.Household.Zip
	d.flags[FieldMoreChildrenPlanned] = h.Family.MoreChildrenPlanned
	d.raw[FieldMoreChildrenCount] = countText(h.Family.MoreChildrenCount)
	d.raw[FieldGoalsText] = h.Goals.Text
	d.raw[FieldOwnOrRent] = h.Goals.OwnOrRent
	d.raw[FieldPropertiesNotes] = h.Goals.PropertiesNotes
	d.flags[FieldHasOld401k] = h.Assets.HasOld401k
	d.flags[FieldExpectsLumpSum] = h.Assets.ExpectsLumpSum
	d.raw[FieldLiDebt] = amountText(h.Insurance.Debt)
	d.raw[FieldLiIncome] = amountText(h.Insurance.IncomeReplacement)
	d.raw[FieldLiMortgage] = amountText(h.Insurance.Mortgage)
	d.raw[FieldLiEducation] = amountText(h.Insurance.Education)
	d.raw[FieldLiInsuranceInPlace] = amountText(h.Insurance.InPlace)
	d.raw[FieldRetirementMonthlyNeed] = amountText(h.Income.RetirementMonthlyNeed)
	d.raw[FieldMonthlyCommitment] = amountText(h.Income.MonthlyCommitment)
	d.raw[FieldNextAppointmentDate] = h.Income.NextAppointmentDate.String
	d.raw[FieldNextAppointmentTime] = h.Income.NextAppointmentTime.String
	return d
}

// Text returns the raw value of a non tri-state field.
func (d Draft) Text(f Field) string {
	return d.raw[f]
}

// Flag returns the answer of a tri-state field.
func (d Draft) Flag(f Field) TriState {
	return d.flags[f]
}

// Set updates exactly one field. Strings go to text-like fields; TriState,
// bool or *bool go to tri-state fields. Nothing else is validated.
func (d *Draft) Set(f Field, value any) error {
	spec, ok := LookupField(f)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if d.raw == nil || d.flags == nil {
		*d = d.clone()
	}
	if spec.Kind == KindTriState {
		switch v := value.(type) {
		case TriState:
			d.flags[f] = v
		case bool:
			d.flags[f] = boolState(v)
		case *bool:
			d.flags[f] = TriStateOf(v)
		default:
			return fmt.Errorf("%w: %s wants yes/no, got %T", ErrFieldKind, f, value)
		}
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s wants text, got %T", ErrFieldKind, f, value)
	}
	d.raw[f] = s
	return nil
}

// Apply coerces the draft onto base, returning the header to persist.
// Identity and timestamps are taken from base.
func (d Draft) Apply(base Header) (Header, error) {
	h := base
	h.Household = Household{
		SpouseName: d.raw[FieldSpouseName],
		Address:    d.raw[FieldAddress],
		City:       d.raw[FieldCity],
		State:      d.raw[FieldState],
		Zip:        d.raw[FieldZip],
	}
	h.Goals = Goals{
		Text:            d.raw[FieldGoalsText],
		OwnOrRent:       d.raw[FieldOwnOrRent],
		PropertiesNotes: d.raw[FieldPropertiesNotes],
	}
	h.Family.MoreChildrenPlanned = d.flags[FieldMoreChildrenPlanned]
	h.Assets = Assets{
		HasOld401k:     d.flags[FieldHasOld401k],
		ExpectsLumpSum: d.flags[FieldExpectsLumpSum],
	}

	var errs []error
	fail := func(f Field, err error) {
		spec, _ := LookupField(f)
		errs = append(errs, &FieldError{Field: f, Label: spec.Label, Err: err})
	}

	var err error
	if h.Family.MoreChildrenCount, err = ParseCount(d.raw[FieldMoreChildrenCount]); err != nil {
		fail(FieldMoreChildrenCount, err)
	}
	amounts := []struct {
		field Field
		dst   *decimal.NullDecimal
	}{
		{FieldLiDebt, &h.Insurance.Debt},
		{FieldLiIncome, &h.Insurance.IncomeReplacement},
		{FieldLiMortgage, &h.Insurance.Mortgage},
		{FieldLiEducation, &h.Insurance.Education},
		{FieldLiInsuranceInPlace, &h.Insurance.InPlace},
		{FieldRetirementMonthlyNeed, &h.Income.RetirementMonthlyNeed},
		{FieldMonthlyCommitment, &h.Income.MonthlyCommitment},
	}
	for _, a := range amounts {
		if *a.dst, err = ParseAmount(d.raw[a.field]); err != nil {
			fail(a.field, err)
		}
	}
	if h.Income.NextAppointmentDate, err = ParseDate(d.raw[FieldNextAppointmentDate]); err != nil {
		fail(FieldNextAppointmentDate, err)
	}
	if h.Income.NextAppointmentTime, err = ParseClock(d.raw[FieldNextAppointmentTime]); err != nil {
		fail(FieldNextAppointmentTime, err)
	}
	if len(errs) > 0 {
		return base, errors.Join(errs...)
	}
	return h, nil
}

func (d Draft) clone() Draft {
	out := NewDraft()
	for k, v := range d.raw {
		out.raw[k] = v
	}
	for k, v := range d.flags {
		out.flags[k] = v
	}
	return out
}
