// Package forms holds the static form-to-email registry: each form maps a
// public form ID to a fixed recipient, sender, subject, and dump template.
package forms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Form is one registered form target.
type Form struct {
	Rcpt     string `yaml:"rcpt"`
	Sender   string `yaml:"sender"`
	Subject  string `yaml:"subject"`
	Template string `yaml:"template"`
}

// dumpTemplate renders every submitted field into a table. Kept as the
// default template for forms that do not define their own.
const dumpTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Form Submission Details</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    h3 { color: #444; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
    th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
    th { background-color: #f5f5f5; }
  </style>
</head>
<body>
  <h3>Form Fields</h3>
  {{if .Fields}}
  <table>
    <thead><tr><th>Field</th><th>Value</th></tr></thead>
    <tbody>
      {{range $field, $value := .Fields}}
      <tr><td>{{$field}}</td><td>{{$value}}</td></tr>
      {{end}}
    </tbody>
  </table>
  {{else}}
  <p>No form fields submitted.</p>
  {{end}}
</body>
</html>
`

// Registry maps form IDs to their definitions.
type Registry struct {
	forms map[string]Form
}

// NewRegistry returns a registry seeded with the built-in debug form.
func NewRegistry() *Registry {
	return &Registry{
		forms: map[string]Form{
			"debugform": {
				Rcpt:     "postmaster@localhost",
				Sender:   "Mother of All Forms <noreply@localhost>",
				Subject:  "A New Form Has Been Gifted You",
				Template: dumpTemplate,
			},
		},
	}
}

// LoadFile merges form definitions from a YAML file over the built-ins. Forms
// without a template get the standard dump template.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read forms file: %w", err)
	}
	var loaded map[string]Form
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse forms file %s: %w", path, err)
	}
	for id, f := range loaded {
		if f.Template == "" {
			f.Template = dumpTemplate
		}
		r.forms[id] = f
	}
	return nil
}

// Get returns the form registered under id.
func (r *Registry) Get(id string) (Form, bool) {
	f, ok := r.forms[id]
	return f, ok
}
