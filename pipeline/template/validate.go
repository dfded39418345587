package template

import "fmt"

// ValidateStructure checks the template shape against the renderer contract.
// It runs once per request, strictly after construction and before
// submission, and never mutates. An empty element list is structurally legal;
// business-logic emptiness is not this validator's concern.
func ValidateStructure(tmpl *RenderTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("render template is nil")
	}
	if tmpl.OutputFormat != RequiredOutputFormat {
		return fmt.Errorf("render template output format must be %q, got %q", RequiredOutputFormat, tmpl.OutputFormat)
	}
	if tmpl.Width != RequiredWidth || tmpl.Height != RequiredHeight {
		return fmt.Errorf("render template canvas must be %dx%d, got %dx%d",
			RequiredWidth, RequiredHeight, tmpl.Width, tmpl.Height)
	}
	if tmpl.Elements == nil {
		return fmt.Errorf("render template has no element list")
	}
	return nil
}
