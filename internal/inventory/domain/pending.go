package domain

// PendingOps es la máscara de operaciones pendientes de una entidad.
// Un bit a 1 significa que el último intento de esa operación falló y
// todavía no se ha resuelto.
type PendingOps int

const (
	PendingCreate PendingOps = 1 << iota // bit0
	PendingUpdate                        // bit1
	PendingStock                         // bit2

	pendingMask = PendingCreate | PendingUpdate | PendingStock
)

// Has indica si el bit está activo.
func (p PendingOps) Has(bit PendingOps) bool {
	return p&bit != 0
}

// With devuelve la máscara con el bit activado.
func (p PendingOps) With(bit PendingOps) PendingOps {
	return (p | bit) & pendingMask
}

// Without limpia el bit respetando el resto. El complemento se restringe
// al dominio de 3 bits: create → 0x6, update → 0x5, stock → 0x3.
func (p PendingOps) Without(bit PendingOps) PendingOps {
	return p & (pendingMask &^ bit)
}

// PendingBitFor devuelve el bit asociado a un evento. Los borrados no usan
// la máscara y devuelven 0.
func PendingBitFor(kind EventKind) PendingOps {
	switch kind {
	case ProductCreated, CategoryCreated:
		return PendingCreate
	case ProductUpdated, CategoryUpdated:
		return PendingUpdate
	case StockQuantityUpdated:
		return PendingStock
	}
	return 0
}
