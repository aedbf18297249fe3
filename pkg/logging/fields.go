package logging

// Field decorates a log entry
type Field interface {
	Apply(entry *Entry)
}

type valueField struct {
	key   string
	value any
}

func (f valueField) Apply(entry *Entry) {
	entry.Fields[f.key] = f.value
}

type errorField struct {
	err error
}

func (f errorField) Apply(entry *Entry) {
	entry.Error = f.err.Error()
}

type componentField string

func (f componentField) Apply(entry *Entry) {
	entry.Component = string(f)
}

// String creates a string field
func String(key, value string) Field {
	return valueField{key: key, value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return valueField{key: key, value: value}
}

// Float creates a float field
func Float(key string, value float64) Field {
	return valueField{key: key, value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return valueField{key: key, value: value}
}

// Error creates an error field
func Error(err error) Field {
	return errorField{err: err}
}

// Component tags the entry with the emitting component
func Component(component string) Field {
	return componentField(component)
}
