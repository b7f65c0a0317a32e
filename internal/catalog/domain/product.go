package domain

// Product is a catalog entry as the backend serves it. Price is in minor
// currency units. Stock is the last fetched quantity; the backend remains
// the authority at transaction time.
type Product struct {
	ID      int64  `json:"idProduk"`
	Name    string `json:"namaProduk"`
	Price   int64  `json:"harga"`
	Stock   int    `json:"stok"`
	Barcode string `json:"barcode,omitempty"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
