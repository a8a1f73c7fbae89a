package model

// TallyKind selects which aggregate counter to read
type TallyKind string

const (
	TallyMacro    TallyKind = "macro"
	TallyCategory TallyKind = "category"
)

// TallyEntry is one aggregate counter value
type TallyEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
	Rank  int    `json:"rank"`
}
