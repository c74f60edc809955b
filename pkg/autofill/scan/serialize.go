package scan

import (
	"fmt"
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
)

// Serialize renders a descriptor as the single-line tag used inside AI
// prompts, preceded by a <label> line when the field has a caption.
func Serialize(f field.FieldDescriptor) string {
	var b strings.Builder
	if f.Label != "" {
		fmt.Fprintf(&b, "<label>%s</label>\n", escape(f.Label))
	}

	switch f.Kind {
	case field.KindTextarea:
		b.WriteString("<textarea")
		writeIdentity(&b, f)
		writeAttr(&b, "placeholder", f.Placeholder)
		fmt.Fprintf(&b, ">%s</textarea>", escape(f.Value))
	case field.KindSelect:
		b.WriteString("<select")
		writeIdentity(&b, f)
		fmt.Fprintf(&b, ` value="%s"`, escape(f.Value))
		if f.Selected {
			b.WriteString(` selected="true"`)
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, ` options="%s"`, escape(strings.Join(f.Options, "|")))
		}
		b.WriteString(">")
	case field.KindCheckbox, field.KindRadio:
		fmt.Fprintf(&b, `<input type="%s"`, f.Kind)
		writeIdentity(&b, f)
		fmt.Fprintf(&b, ` checked="%t">`, f.Checked)
	case field.KindSubmit:
		b.WriteString(`<button type="submit"`)
		writeIdentity(&b, f)
		fmt.Fprintf(&b, ">%s</button>", escape(f.Value))
	default:
		inputType := f.InputType
		if inputType == "" {
			inputType = "text"
		}
		fmt.Fprintf(&b, `<input type="%s"`, escape(inputType))
		writeIdentity(&b, f)
		writeAttr(&b, "placeholder", f.Placeholder)
		fmt.Fprintf(&b, ` value="%s">`, escape(f.Value))
	}

	b.WriteString("\n")
	return b.String()
}

func writeIdentity(b *strings.Builder, f field.FieldDescriptor) {
	writeAttr(b, "name", f.Name)
	writeAttr(b, "id", f.ID)
}

func writeAttr(b *strings.Builder, key, val string) {
	if val == "" {
		return
	}
	fmt.Fprintf(b, ` %s="%s"`, key, escape(val))
}

var escaper = strings.NewReplacer(`"`, "&quot;", "\n", " ", "\r", " ")

func escape(s string) string {
	return escaper.Replace(s)
}
