package fna

// Field names a header column that the form can edit.
type Field string

const (
	FieldSpouseName            Field = "spouse_name"
	FieldAddress               Field = "address"
	FieldCity                  Field = "city"
	FieldState                 Field = "state"
	FieldZip                   Field = "zip_code"
	FieldMoreChildrenPlanned   Field = "more_children_planned"
	FieldMoreChildrenCount     Field = "more_children_count"
	FieldGoalsText             Field = "goals_text"
	FieldOwnOrRent             Field = "own_or_rent"
	FieldPropertiesNotes       Field = "properties_notes"
	FieldHasOld401k            Field = "has_old_401k"
	FieldExpectsLumpSum        Field = "expects_lump_sum"
	FieldLiDebt                Field = "li_debt"
	FieldLiIncome              Field = "li_income"
	FieldLiMortgage            Field = "li_mortgage"
	FieldLiEducation           Field = "li_education"
	FieldLiInsuranceInPlace    Field = "li_insurance_in_place"
	FieldRetirementMonthlyNeed Field = "retirement_monthly_need"
	FieldMonthlyCommitment     Field = "monthly_commitment"
	FieldNextAppointmentDate   Field = "next_appointment_date"
	FieldNextAppointmentTime   Field = "next_appointment_time"
)

// Kind tags how a field is edited and coerced.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindAmount
	KindCount
	KindTriState
	KindDate
	KindClock
)

// Numeric reports whether values of the kind are coerced to numbers on save.
func (k Kind) Numeric() bool {
	return k == KindAmount || k == KindCount
}

// FieldSpec describes one editable field.
type FieldSpec struct {
	Field Field
	Label string
	Kind  Kind
	Tab   Tab
}

var fieldSpecs = []FieldSpec{
	{FieldSpouseName, "Spouse Name", KindText, TabAbout},
	{FieldAddress, "Street Address", KindText, TabAbout},
	{FieldCity, "City", KindText, TabAbout},
	{FieldState, "State", KindText, TabAbout},
	{FieldZip, "ZIP Code", KindText, TabAbout},
	{FieldMoreChildrenPlanned, "Plan to have more children?", KindTriState, TabAbout},
	{FieldMoreChildrenCount, "How many more children?", KindCount, TabAbout},
	{FieldGoalsText, "Financial goals (5-10 years)", KindLongText, TabGoals},
	{FieldOwnOrRent, "Own or Rent?", KindText, TabGoals},
	{FieldPropertiesNotes, "Property notes", KindLongText, TabGoals},
	{FieldHasOld401k, "401k from previous employer?", KindTriState, TabAssets},
	{FieldExpectsLumpSum, "Expect lump sums/inheritance?", KindTriState, TabAssets},
	{FieldLiDebt, "Debt to cover ($)", KindAmount, TabInsurance},
	{FieldLiIncome, "Income replacement ($)", KindAmount, TabInsurance},
	{FieldLiMortgage, "Mortgage ($)", KindAmount, TabInsurance},
	{FieldLiEducation, "Education ($)", KindAmount, TabInsurance},
	{FieldLiInsuranceInPlace, "Current insurance ($)", KindAmount, TabInsurance},
	{FieldRetirementMonthlyNeed, "Monthly retirement need ($)", KindAmount, TabIncome},
	{FieldMonthlyCommitment, "Monthly commitment ($)", KindAmount, TabIncome},
	{FieldNextAppointmentDate, "Next appt date (YYYY-MM-DD)", KindDate, TabIncome},
	{FieldNextAppointmentTime, "Next appt time (HH:MM)", KindClock, TabIncome},
}

var fieldIndex = func() map[Field]FieldSpec {
	idx := make(map[Field]FieldSpec, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		idx[spec.Field] = spec
	}
	return idx
}()

// Fields returns every editable field in form order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	copy(out, fieldSpecs)
	return out
}

// FieldsFor returns the fields shown on a tab. The liabilities tab has none.
func FieldsFor(tab Tab) []FieldSpec {
	var out []FieldSpec
	for _, spec := range fieldSpecs {
		if spec.Tab == tab {
			out = append(out, spec)
		}
	}
	return out
}

// LookupField finds the spec for f.
func LookupField(f Field) (FieldSpec, bool) {
	spec, ok := fieldIndex[f]
	return spec, ok
}
