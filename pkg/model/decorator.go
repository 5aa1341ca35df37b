package model

// Decorator enriches a form definition with layout or widget metadata before a
// session is opened.
type Decorator interface {
	Decorate(*Form) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Form) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *Form) error {
	return fn(form)
}

// Decorate applies decorators in order to a copy of form.
func Decorate(form Form, decorators ...Decorator) (Form, error) {
	out := form.Clone()
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&out); err != nil {
			return Form{}, err
		}
	}
	return out, nil
}
