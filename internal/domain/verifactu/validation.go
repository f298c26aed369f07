package verifactu

import (
	"net/mail"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

// CheckKind tipo de comprobación de una regla.
type CheckKind int

const (
	CheckRequired CheckKind = iota
	CheckString
	CheckInteger
	CheckDecimal
	CheckEmail
	CheckPredicate
)

// Field describe un campo validable: nombre público y accesor tipado.
// El accesor permite validar valores que no son atributos literales
// del registro (p. ej. la huella anterior del encadenamiento).
type Field[R any] struct {
	Name string
	Get  func(R) any
}

// F construye un Field.
func F[R any](name string, get func(R) any) Field[R] {
	return Field[R]{Name: name, Get: get}
}

// Predicate comprobación libre sobre el valor y el registro completo.
// Devuelve el mensaje de error o "" si el valor es correcto.
type Predicate[R any] func(value any, rec R) string

// Rule aplica una comprobación a uno o varios campos.
type Rule[R any] struct {
	Fields    []Field[R]
	Check     CheckKind
	Predicate Predicate[R]
}

// Required el valor no puede ser nulo, cadena vacía ni secuencia vacía.
func Required[R any](fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckRequired}
}

// IsString el valor debe ser una cadena.
func IsString[R any](fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckString}
}

// IsInteger el valor debe ser un entero (o una cadena con un entero).
func IsInteger[R any](fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckInteger}
}

// IsDecimal el valor debe ser numérico.
func IsDecimal[R any](fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckDecimal}
}

// IsEmail el valor debe ser una dirección de correo.
func IsEmail[R any](fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckEmail}
}

// Must aplica un predicado a los campos.
func Must[R any](p Predicate[R], fields ...Field[R]) Rule[R] {
	return Rule[R]{Fields: fields, Check: CheckPredicate, Predicate: p}
}

// RuleSet lista ordenada de reglas de un tipo de registro.
type RuleSet[R any] []Rule[R]

// Validate ejecuta todas las reglas en orden de declaración y acumula los
// errores por campo. Los campos excluidos se omiten por completo, incluida
// la regla Required. Devuelve nil si no hay errores.
func (rs RuleSet[R]) Validate(rec R, excluded ...string) FieldErrors {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	errs := FieldErrors{}
	for _, rule := range rs {
		for _, f := range rule.Fields {
			if skip[f.Name] {
				continue
			}
			if msg := rule.evaluate(f.Get(rec), rec); msg != "" {
				errs.Add(f.Name, msg)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r Rule[R]) evaluate(v any, rec R) string {
	switch r.Check {
	case CheckRequired:
		if isEmpty(v) {
			return "es obligatorio"
		}
	case CheckString:
		if isEmpty(v) {
			return ""
		}
		if _, ok := v.(string); !ok {
			return "debe ser una cadena"
		}
	case CheckInteger:
		if isEmpty(v) {
			return ""
		}
		if !isInteger(v) {
			return "debe ser un número entero"
		}
	case CheckDecimal:
		if isEmpty(v) {
			return ""
		}
		if !isDecimal(v) {
			return "debe ser un número decimal"
		}
	case CheckEmail:
		if isEmpty(v) {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return "debe ser un email válido"
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return "debe ser un email válido"
		}
	case CheckPredicate:
		if r.Predicate != nil {
			return r.Predicate(v, rec)
		}
	}
	return ""
}

// isEmpty: nil, "", puntero nulo, secuencia vacía o valor que se declara vacío.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case decimal.Decimal:
		return false
	case decimal.NullDecimal:
		return !x.Valid
	case interface{ IsEmpty() bool }:
		return x.IsEmpty()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isInteger(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case string:
		_, err := strconv.ParseInt(x, 10, 64)
		return err == nil
	case decimal.Decimal:
		return x.IsInteger()
	case decimal.NullDecimal:
		return x.Valid && x.Decimal.IsInteger()
	}
	return false
}

func isDecimal(v any) bool {
	switch x := v.(type) {
	case decimal.Decimal:
		return true
	case *decimal.Decimal:
		return x != nil
	case decimal.NullDecimal:
		return x.Valid
	case float32, float64, int, int32, int64:
		return true
	case string:
		_, err := decimal.NewFromString(x)
		return err == nil
	}
	return false
}
