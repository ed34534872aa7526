package entity

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Solo lectura desde este módulo.
type Warehouse struct {
	ID   string
	Name string
}
