package entity

// PreviousRecord huella del registro inmediatamente anterior (RegistroAnterior).
// Es una referencia débil: no se verifica ni se consulta el registro original.
type PreviousRecord struct {
	IssuerNIF    string
	SeriesNumber string
	IssueDate    string
	Hash         string
}

// ChainLink es el encadenamiento de un registro: primer registro de la cadena
// o enlace a un registro anterior. El valor cero no es ninguna de las dos
// variantes y no supera la validación.
type ChainLink struct {
	first    bool
	previous *PreviousRecord
}

// FirstRecord crea el enlace de un registro sin predecesor (PrimerRegistro = S).
func FirstRecord() ChainLink { return ChainLink{first: true} }

// LinkedTo crea el enlace a un registro anterior.
func LinkedTo(prev PreviousRecord) ChainLink {
	return ChainLink{previous: &prev}
}

// IsFirst indica si es el primer registro de la cadena.
func (c ChainLink) IsFirst() bool { return c.first && c.previous == nil }

// Previous devuelve la huella anterior y true si el enlace apunta a un registro anterior.
func (c ChainLink) Previous() (PreviousRecord, bool) {
	if c.first || c.previous == nil {
		return PreviousRecord{}, false
	}
	return *c.previous, true
}

// PreviousHash es la huella que entra en la concatenación: vacía para el primer registro.
func (c ChainLink) PreviousHash() string {
	if prev, ok := c.Previous(); ok {
		return prev.Hash
	}
	return ""
}

// IsEmpty indica que no se ha fijado ninguna variante.
func (c ChainLink) IsEmpty() bool { return !c.first && c.previous == nil }
