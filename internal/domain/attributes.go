package domain

import "time"

// FieldKind names a family of numbered extended attribute slots.
type FieldKind int

const (
	FieldText FieldKind = iota + 1
	FieldNumber
	FieldFlag
	FieldDate
	FieldCost
	FieldStart
	FieldFinish
	FieldDuration
	FieldOutlineCode
	// FieldNotes and FieldSubprojectFile are single-valued and carry no slot number.
	FieldNotes
	FieldSubprojectFile
)

func (k FieldKind) String() string {
	switch k {
	case FieldText:
		return "text"
	case FieldNumber:
		return "number"
	case FieldFlag:
		return "flag"
	case FieldDate:
		return "date"
	case FieldCost:
		return "cost"
	case FieldStart:
		return "start"
	case FieldFinish:
		return "finish"
	case FieldDuration:
		return "duration"
	case FieldOutlineCode:
		return "outline_code"
	case FieldNotes:
		return "notes"
	case FieldSubprojectFile:
		return "subproject_file"
	}
	return "unknown"
}

// Currency reports whether values of this kind are stored scaled by 100 at the source.
func (k FieldKind) Currency() bool { return k == FieldCost }

// ExtendedAttributes holds the numbered user-definable slots of an entity.
// Slot numbers are 1-based; a nil entry means the value was never set.
type ExtendedAttributes struct {
	Text        [30]*string    `json:"text"`
	Number      [20]*float64   `json:"number"`
	Flag        [20]*bool      `json:"flag"`
	Date        [10]*time.Time `json:"date"`
	Cost        [10]*float64   `json:"cost"`
	Start       [10]*time.Time `json:"start"`
	Finish      [10]*time.Time `json:"finish"`
	Duration    [10]*Duration  `json:"duration"`
	OutlineCode [10]*string    `json:"outline_code"`
}

// Set stores value in the numbered slot of the given kind. It returns false when
// the slot is out of range or the value has the wrong type for the kind.
func (a *ExtendedAttributes) Set(kind FieldKind, slot int, value any) bool {
	i := slot - 1
	switch kind {
	case FieldText:
		return setSlot(a.Text[:], i, value)
	case FieldOutlineCode:
		return setSlot(a.OutlineCode[:], i, value)
	case FieldNumber:
		return setSlot(a.Number[:], i, value)
	case FieldCost:
		return setSlot(a.Cost[:], i, value)
	case FieldFlag:
		return setSlot(a.Flag[:], i, value)
	case FieldDate:
		return setSlot(a.Date[:], i, value)
	case FieldStart:
		return setSlot(a.Start[:], i, value)
	case FieldFinish:
		return setSlot(a.Finish[:], i, value)
	case FieldDuration:
		return setSlot(a.Duration[:], i, value)
	}
	return false
}

// ResetFlags sets flags 1..n to false.
func (a *ExtendedAttributes) ResetFlags(n int) {
	for i := 0; i < n && i < len(a.Flag); i++ {
		v := false
		a.Flag[i] = &v
	}
}

func setSlot[T any](slots []*T, i int, value any) bool {
	if i < 0 || i >= len(slots) {
		return false
	}
	switch v := value.(type) {
	case T:
		slots[i] = &v
		return true
	case *T:
		if v == nil {
			slots[i] = nil
			return true
		}
		c := *v
		slots[i] = &c
		return true
	}
	return false
}
