package types

type (
	// OptionalFloat is a float32 value that can be empty. Cells use it for
	// volume and pitch, where empty means "inherit the setting of the
	// referenced sample slot". It replaces the negative-sentinel convention of
	// the storage format.
	OptionalFloat struct {
		value  float32
		exists bool
	}
)

func NewOptionalFloat(value float32, exists bool) OptionalFloat {
	return OptionalFloat{value, exists}
}

func NewOptionalFloatOf(value float32) OptionalFloat {
	return OptionalFloat{
		value:  value,
		exists: true,
	}
}

func NewEmptyOptionalFloat() OptionalFloat {
	// could also just use OptionalFloat{}
	return OptionalFloat{
		exists: false,
	}
}

func (f OptionalFloat) Unpack() (float32, bool) {
	return f.value, f.exists
}

func (f OptionalFloat) Value() float32 {
	if !f.exists {
		panic("Access value of empty OptionalFloat")
	}
	return f.value
}

func (f OptionalFloat) Empty() bool {
	return !f.exists
}

// Or returns the value, or def when empty. Used when resolving inherited cell
// settings against the sample slot defaults.
func (f OptionalFloat) Or(def float32) float32 {
	if !f.exists {
		return def
	}
	return f.value
}

// Map applies fn to the value when present, leaving empty values empty.
func (f OptionalFloat) Map(fn func(float32) float32) OptionalFloat {
	if !f.exists {
		return f
	}
	return OptionalFloat{fn(f.value), true}
}
