package dataset

// Datatype identifies which concrete value an Attribute (or a dataset
// payload) holds. The set is closed: backends switch exhaustively over
// these tags, so adding a datatype is a compile-time-visible change at
// every backend boundary.
//
// Scalar tags cover the fixed scientific datatypes; every scalar has a
// matching Vec* tag for homogeneous sequences. ArrFloat64x7 is the
// fixed-size 7-element double array used for physical-unit exponents.
//
// FloatExt marks extended-precision floating point. Go has no native
// extended type, so the value is held as a float64 in memory; the tag
// stays distinct so backends that support a wider native type can store
// it losslessly at rest.
type Datatype int

const (
	// Undefined marks an unset attribute. It must never reach storage.
	Undefined Datatype = iota

	Char
	Bool
	String
	Int16
	Int32
	Int64
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	FloatExt

	// ArrFloat64x7 is the fixed 7-element double array (unit dimension).
	ArrFloat64x7

	VecChar
	VecBool
	VecString
	VecInt16
	VecInt32
	VecInt64
	VecUint16
	VecUint32
	VecUint64
	VecFloat32
	VecFloat64
	VecFloatExt
)

// datatypeNames maps tags to their stable string form. The string form
// is what backends persist, so entries must never be renamed.
var datatypeNames = map[Datatype]string{
	Undefined:    "undefined",
	Char:         "char",
	Bool:         "bool",
	String:       "string",
	Int16:        "int16",
	Int32:        "int32",
	Int64:        "int64",
	Uint16:       "uint16",
	Uint32:       "uint32",
	Uint64:       "uint64",
	Float32:      "float32",
	Float64:      "float64",
	FloatExt:     "floatext",
	ArrFloat64x7: "arr_float64_7",
	VecChar:      "vec_char",
	VecBool:      "vec_bool",
	VecString:    "vec_string",
	VecInt16:     "vec_int16",
	VecInt32:     "vec_int32",
	VecInt64:     "vec_int64",
	VecUint16:    "vec_uint16",
	VecUint32:    "vec_uint32",
	VecUint64:    "vec_uint64",
	VecFloat32:   "vec_float32",
	VecFloat64:   "vec_float64",
	VecFloatExt:  "vec_floatext",
}

var datatypeByName = func() map[string]Datatype {
	m := make(map[string]Datatype, len(datatypeNames))
	for d, n := range datatypeNames {
		m[n] = d
	}
	return m
}()

// String returns the stable name of the datatype.
func (d Datatype) String() string {
	if n, ok := datatypeNames[d]; ok {
		return n
	}
	return "invalid"
}

// ParseDatatype resolves a stable datatype name back to its tag.
//
// Returns:
//   - Datatype: The parsed tag
//   - error: ErrInvalidParameter if the name is unknown
func ParseDatatype(name string) (Datatype, error) {
	if d, ok := datatypeByName[name]; ok {
		return d, nil
	}
	return Undefined, &Error{
		Code:    ErrInvalidParameter,
		Message: "unknown datatype name",
		Path:    name,
	}
}

// Valid reports whether d is a member of the closed tag set.
func (d Datatype) Valid() bool {
	_, ok := datatypeNames[d]
	return ok
}

// IsVector reports whether d tags a homogeneous sequence.
func (d Datatype) IsVector() bool {
	return d >= VecChar && d <= VecFloatExt
}

// Scalar returns the element datatype of a vector tag. Scalar tags map
// to themselves; ArrFloat64x7 elements are Float64.
func (d Datatype) Scalar() Datatype {
	switch d {
	case VecChar:
		return Char
	case VecBool:
		return Bool
	case VecString:
		return String
	case VecInt16:
		return Int16
	case VecInt32:
		return Int32
	case VecInt64:
		return Int64
	case VecUint16:
		return Uint16
	case VecUint32:
		return Uint32
	case VecUint64:
		return Uint64
	case VecFloat32:
		return Float32
	case VecFloat64:
		return Float64
	case VecFloatExt:
		return FloatExt
	case ArrFloat64x7:
		return Float64
	default:
		return d
	}
}

// Size returns the byte size of one element of the scalar datatype
// (vector tags report their element size). String and Undefined have no
// fixed element size and report 0.
func (d Datatype) Size() int {
	switch d.Scalar() {
	case Char, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, FloatExt:
		return 8
	default:
		return 0
	}
}
