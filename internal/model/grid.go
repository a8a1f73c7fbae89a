package model

// MacroCode is one of the nine coarse cells of the econ x auth grid.
// First letter: economic Left/Centre/Right. Second: authority
// Libertarian/Moderate/Authoritarian.
type MacroCode string

const (
	MacroLeftLib   MacroCode = "LL"
	MacroLeftMod   MacroCode = "LM"
	MacroLeftAuth  MacroCode = "LA"
	MacroCentreLib MacroCode = "CL"
	MacroCentre    MacroCode = "CM"
	MacroCentreAut MacroCode = "CA"
	MacroRightLib  MacroCode = "RL"
	MacroRightMod  MacroCode = "RM"
	MacroRightAuth MacroCode = "RA"
)

// MacroCodes lists all nine cells in grid order
var MacroCodes = []MacroCode{
	MacroLeftLib, MacroLeftMod, MacroLeftAuth,
	MacroCentreLib, MacroCentre, MacroCentreAut,
	MacroRightLib, MacroRightMod, MacroRightAuth,
}

var macroLabels = map[MacroCode]string{
	MacroLeftLib:   "Libertarian Left",
	MacroLeftMod:   "Left",
	MacroLeftAuth:  "Authoritarian Left",
	MacroCentreLib: "Libertarian Centre",
	MacroCentre:    "Centrist",
	MacroCentreAut: "Authoritarian Centre",
	MacroRightLib:  "Libertarian Right",
	MacroRightMod:  "Right",
	MacroRightAuth: "Authoritarian Right",
}

// Valid reports whether c is one of the nine macro codes
func (c MacroCode) Valid() bool {
	_, ok := macroLabels[c]
	return ok
}

// Label is the generic human label of the macro cell
func (c MacroCode) Label() string {
	return macroLabels[c]
}

// GridScheme selects the coarse (3x3) or fine grid
type GridScheme string

const (
	SchemeCoarse GridScheme = "coarse"
	SchemeFine   GridScheme = "fine"
)

// AxisRef is one supplementary axis of a category vector
type AxisRef struct {
	Name  string  `json:"name"`
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

// CategoryVector is the reference coordinate of one fine category
type CategoryVector struct {
	Macro MacroCode `json:"macro"`
	Label string    `json:"label"`
	Axes  []AxisRef `json:"axes"`
}

// GridCell describes one macro or fine category for presentation
type GridCell struct {
	Scheme      GridScheme `json:"scheme"`
	Macro       MacroCode  `json:"macro"`
	MacroLabel  string     `json:"macroLabel"`
	Label       string     `json:"label"`
	Range       string     `json:"range"`
	Description string     `json:"description"`
	AlignsWith  []string   `json:"alignsWith,omitempty"`
	Surprising  []string   `json:"surprising,omitempty"`
}
