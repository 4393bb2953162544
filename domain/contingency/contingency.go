package contingency

import (
	"gobias/domain/table"
)

// Table2x2 holds the four cell counts of an exposed/unexposed by
// event/no-event table. Values are fixed at construction; no smoothing
// is ever applied here.
//
//	          event   no-event
//	exposed     a        b
//	unexposed   c        d
type Table2x2 struct {
	A int `json:"a"` // exposed & event
	B int `json:"b"` // exposed & no-event
	C int `json:"c"` // unexposed & event
	D int `json:"d"` // unexposed & no-event
}

// Counts returns the cells in (a, b, c, d) order.
func (t Table2x2) Counts() [4]int {
	return [4]int{t.A, t.B, t.C, t.D}
}

// AsMatrix returns the table in row-major [exposed, unexposed] order.
func (t Table2x2) AsMatrix() [2][2]int {
	return [2][2]int{{t.A, t.B}, {t.C, t.D}}
}

// Min returns the smallest cell count.
func (t Table2x2) Min() int {
	m := t.A
	for _, v := range []int{t.B, t.C, t.D} {
		if v < m {
			m = v
		}
	}
	return m
}

// Total returns the table sum.
func (t Table2x2) Total() int {
	return t.A + t.B + t.C + t.D
}

// Build counts a cohort into a 2x2 table. Rows with a missing group or
// outcome are excluded; the outcome is matched by exact equality
// against the positive value (conventionally 1). Absent categories
// simply produce zero counts; there are no error paths beyond a
// missing column.
func Build(cohort *table.Frame, groupCol, outcomeCol, exposed, unexposed string, positive float64) (Table2x2, error) {
	groups, err := cohort.Column(groupCol)
	if err != nil {
		return Table2x2{}, err
	}
	outcomes, err := cohort.Column(outcomeCol)
	if err != nil {
		return Table2x2{}, err
	}

	var t Table2x2
	for i := range groups {
		g, o := groups[i], outcomes[i]
		if g.IsMissing() || o.IsMissing() {
			continue
		}
		x, ok := o.AsNumeric()
		if !ok {
			continue
		}
		event := x == positive
		switch g.Label() {
		case exposed:
			if event {
				t.A++
			} else {
				t.B++
			}
		case unexposed:
			if event {
				t.C++
			} else {
				t.D++
			}
		}
	}
	return t, nil
}
