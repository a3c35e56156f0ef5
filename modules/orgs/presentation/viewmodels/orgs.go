package viewmodels

type Member struct {
	Label       string `json:"label"`
	EsEncargado bool   `json:"es_encargado,omitempty"`
	Desde       string `json:"desde,omitempty"`
}

type Direccion struct {
	ID         int      `json:"id"`
	Nombre     string   `json:"nombre"`
	Estado     string   `json:"estado"`
	Badge      string   `json:"badge"`
	Encargados []string `json:"encargados"`
	Miembros   []Member `json:"miembros"`
}

type Departamento struct {
	ID         int      `json:"id"`
	Nombre     string   `json:"nombre"`
	Estado     string   `json:"estado"`
	Badge      string   `json:"badge"`
	Direccion  string   `json:"direccion"`
	Encargados []string `json:"encargados"`
	Miembros   []Member `json:"miembros"`
}

type Cuadrilla struct {
	ID           int      `json:"id"`
	Nombre       string   `json:"nombre"`
	Estado       string   `json:"estado"`
	Badge        string   `json:"badge"`
	Departamento string   `json:"departamento"`
	Direccion    string   `json:"direccion,omitempty"`
	Miembros     []Member `json:"miembros"`
}

type Territorial struct {
	ID          int    `json:"id"`
	Nombre      string `json:"nombre"`
	Responsable string `json:"responsable"`
	ProfileID   *int   `json:"profile_id"`
}

// Option is one entry of a parent selector.
type Option struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
}

// Page is a rendered collection page with its pager.
type Page[T any] struct {
	Collection string `json:"collection"`
	Items      []T    `json:"items"`
	Count      int    `json:"count"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Pages      []int  `json:"pages"`
	Loading    bool   `json:"loading,omitempty"`
	Error      string `json:"error,omitempty"`
}
