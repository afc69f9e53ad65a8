package fna

// Tab is one of the six fixed form sections.
type Tab int

const (
	TabAbout Tab = iota
	TabGoals
	TabAssets
	TabLiabilities
	TabInsurance
	TabIncome
)

// Tabs lists every section in display order.
var Tabs = []Tab{TabAbout, TabGoals, TabAssets, TabLiabilities, TabInsurance, TabIncome}

// ID is the short stable name of the tab.
func (t Tab) ID() string {
	switch t {
	case TabAbout:
		return "about"
	case TabGoals:
		return "goals"
	case TabAssets:
		return "assets"
	case TabLiabilities:
		return "liabilities"
	case TabInsurance:
		return "insurance"
	case TabIncome:
		return "income"
	default:
		return ""
	}
}

// Label is the tab caption.
func (t Tab) Label() string {
	switch t {
	case TabAbout:
		return "Client & Family"
	case TabGoals:
		return "Goals & Properties"
	case TabAssets:
		return "Assets"
	case TabLiabilities:
		return "Liabilities"
	case TabInsurance:
		return "Insurance"
	case TabIncome:
		return "Income & Estate"
	default:
		return ""
	}
}
