package entity

// Item ítem de inventario. El maestro lo administra un colaborador externo;
// aquí solo se lee para validar existencia y mostrar el nombre.
type Item struct {
	ID   string
	SKU  string
	Name string
}
