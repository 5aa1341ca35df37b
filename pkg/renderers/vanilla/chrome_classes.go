package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassPage    ChromeClass = "formkit-page"
	ClassHeader  ChromeClass = "formkit-header"
	ClassDisplay ChromeClass = "formkit-display"
	ClassForm    ChromeClass = "formkit-form"
	ClassSection ChromeClass = "formkit-section"
	ClassField   ChromeClass = "formkit-field"
	ClassActions ChromeClass = "formkit-actions"
	ClassErrors  ChromeClass = "formkit-errors"
	ClassGrid    ChromeClass = "formkit-grid"
)

// ChromeClasses overrides the class applied to each chrome element. Empty
// entries fall back to the defaults.
type ChromeClasses struct {
	Page    string `json:"page"`
	Header  string `json:"header"`
	Display string `json:"display"`
	Form    string `json:"form"`
	Section string `json:"section"`
	Actions string `json:"actions"`
	Errors  string `json:"errors"`
	Grid    string `json:"grid"`
}

func (c ChromeClasses) withDefaults() ChromeClasses {
	pick := func(value string, fallback ChromeClass) string {
		if cleaned := sanitizeClassList(value); cleaned != "" {
			return string(fallback) + " " + cleaned
		}
		return string(fallback)
	}
	return ChromeClasses{
		Page:    pick(c.Page, ClassPage),
		Header:  pick(c.Header, ClassHeader),
		Display: pick(c.Display, ClassDisplay),
		Form:    pick(c.Form, ClassForm),
		Section: pick(c.Section, ClassSection),
		Actions: pick(c.Actions, ClassActions),
		Errors:  pick(c.Errors, ClassErrors),
		Grid:    pick(c.Grid, ClassGrid),
	}
}
