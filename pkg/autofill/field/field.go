// Package field defines the data shared by the form-filling pipeline:
// scanned field descriptors, value maps, profile values and fill reports.
package field

// Kind is the tagged variant of a detected control, fixed at scan time.
type Kind string

const (
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
	KindSelect   Kind = "select"
	KindTextarea Kind = "textarea"
	KindSubmit   Kind = "submit"

	// KindButton covers <input type=button|reset|image>.
	KindButton Kind = "button"
	KindFile   Kind = "file"
)

// Fillable reports whether values can be written to controls of this kind.
func (k Kind) Fillable() bool {
	switch k {
	case KindText, KindCheckbox, KindRadio, KindSelect, KindTextarea:
		return true
	}
	return false
}

// Tag returns the element name of a Fillable kind.
func (k Kind) Tag() string {
	switch k {
	case KindSelect, KindTextarea:
		return string(k)
	}
	return "input"
}

// FieldDescriptor describes one detected form control.
type FieldDescriptor struct {
	Kind Kind `json:"kind"`

	// InputType is the lower-cased type attribute of an <input>.
	InputType string `json:"inputType,omitempty"`

	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`

	// Value is the current value of text, textarea and select controls.
	Value string `json:"value,omitempty"`
	// Checked is the state of checkbox and radio controls.
	Checked bool `json:"checked,omitempty"`
	// Selected reports whether a select has an explicitly selected option.
	Selected bool `json:"selected,omitempty"`
	// Options holds the visible option texts of a select.
	Options []string `json:"options,omitempty"`
}

// Identifier returns the key under which values for this field are stored:
// the name, else the id, else the label.
func (f FieldDescriptor) Identifier() string {
	switch {
	case f.Name != "":
		return f.Name
	case f.ID != "":
		return f.ID
	default:
		return f.Label
	}
}

// ScanResult is the outcome of one scan of a document.
type ScanResult struct {
	HasFillableForms bool              `json:"hasFillableForms"`
	FormCount        int               `json:"formCount"`
	FieldCount       int               `json:"fieldCount"`
	Fields           []FieldDescriptor `json:"fields"`
	SerializedForAI  string            `json:"serializedForAI"`
}

// ValueMap maps field identifiers to the values to write.
type ValueMap map[string]string

// Merge copies entries of other that are not already present in m.
func (m ValueMap) Merge(other ValueMap) {
	for k, v := range other {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
}

// DataSource is where fill values came from.
type DataSource string

const (
	SourceProfile DataSource = "profile"
	SourceAI      DataSource = "ai"
	SourceHybrid  DataSource = "hybrid"
)

// FillReport is returned to the caller after every fill attempt.
type FillReport struct {
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
	ErrorKind      ErrorKind  `json:"errorKind,omitempty"`
	FilledFields   []string   `json:"filledFieldIdentifiers"`
	UnfilledFields []string   `json:"unfilledFieldIdentifiers,omitempty"`
	FieldCount     int        `json:"fieldCount"`
	FormCount      int        `json:"formCount"`
	DataSource     DataSource `json:"dataSource,omitempty"`
}
