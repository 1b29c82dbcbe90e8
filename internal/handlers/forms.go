package handlers

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"churchadmin/internal/models"
)

// FieldView is one record field as shown on a console form or detail page
type FieldView struct {
	Name     string
	Label    string
	Input    string
	Value    string
	Display  string
	Checked  bool
	Required bool
	Options  []models.Option
}

// IsSelect reports whether the field renders as a drop-down
func (f FieldView) IsSelect() bool {
	return f.Input == "select"
}

type fieldSpec struct {
	index     int
	name      string
	label     string
	input     string
	optionSet string
	required  bool
	list      bool
}

// specsOf reads the console field specs of a record type from its struct tags.
// Fields tagged input:"-" and the embedded record metadata are skipped.
func specsOf(t reflect.Type) []fieldSpec {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var specs []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		input := f.Tag.Get("input")
		if f.Anonymous || input == "-" {
			continue
		}
		spec := fieldSpec{
			index:    i,
			name:     strings.Split(f.Tag.Get("json"), ",")[0],
			label:    f.Tag.Get("label"),
			input:    input,
			required: f.Tag.Get("required") == "true",
			list:     f.Tag.Get("list") == "true",
		}
		if set, ok := strings.CutPrefix(input, "select:"); ok {
			spec.input = "select"
			spec.optionSet = set
		}
		if spec.input == "" {
			spec.input = "text"
		}
		if spec.label == "" {
			spec.label = spec.name
		}
		specs = append(specs, spec)
	}
	return specs
}

func (s fieldSpec) view(rv reflect.Value) FieldView {
	fv := FieldView{
		Name:     s.name,
		Label:    s.label,
		Input:    s.input,
		Required: s.required,
	}
	field := rv.Field(s.index)
	switch field.Kind() {
	case reflect.Bool:
		fv.Checked = field.Bool()
		fv.Value = strconv.FormatBool(fv.Checked)
		fv.Display = "No"
		if fv.Checked {
			fv.Display = "Yes"
		}
	case reflect.String:
		fv.Value = field.String()
		fv.Display = fv.Value
	}
	if s.optionSet != "" {
		fv.Options = models.Options(s.optionSet)
		fv.Display = models.OptionLabel(s.optionSet, fv.Value)
	}
	return fv
}

// formFields returns every editable or displayed field of e in declaration order
func formFields(e any) []FieldView {
	rv := reflect.Indirect(reflect.ValueOf(e))
	specs := specsOf(rv.Type())
	fields := make([]FieldView, 0, len(specs))
	for _, s := range specs {
		fields = append(fields, s.view(rv))
	}
	return fields
}

// listColumns returns the labels of the fields shown in record lists
func listColumns(t reflect.Type) []string {
	var labels []string
	for _, s := range specsOf(t) {
		if s.list {
			labels = append(labels, s.label)
		}
	}
	return labels
}

// listCells returns the display values of e's list fields
func listCells(e any) []string {
	rv := reflect.Indirect(reflect.ValueOf(e))
	var cells []string
	for _, s := range specsOf(rv.Type()) {
		if s.list {
			cells = append(cells, s.view(rv).Display)
		}
	}
	return cells
}

// bindForm copies submitted form values onto e. Read-only fields are left alone.
// An unchecked checkbox is absent from the form and binds as false.
func bindForm(e any, form url.Values) {
	rv := reflect.Indirect(reflect.ValueOf(e))
	for _, s := range specsOf(rv.Type()) {
		if s.input == "readonly" {
			continue
		}
		field := rv.Field(s.index)
		switch field.Kind() {
		case reflect.Bool:
			field.SetBool(checked(form.Get(s.name)))
		case reflect.String:
			field.SetString(strings.TrimSpace(form.Get(s.name)))
		}
	}
}

func checked(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
