package refdata

import "strings"

// Weight tolerates both numeric and quoted values; the U_ tables are not
// consistent about how tare weights come back.
type Weight string

func (w *Weight) UnmarshalJSON(b []byte) error {
	*w = Weight(strings.Trim(string(b), `"`))
	return nil
}

func (w Weight) String() string { return string(w) }

type Cart struct {
	Name   string `json:"Name"`
	Weight Weight `json:"U_Weight"`
}

type Hanger struct {
	Name   string `json:"Name"`
	Weight Weight `json:"U_Weight"`
}

type BinLocation struct {
	BinCode   string `json:"BinCode"`
	Warehouse string `json:"Warehouse"`
	AbsEntry  int    `json:"AbsEntry"`
	License   string `json:"U_MetrcLicense"`
}

type Item struct {
	ItemName string `json:"ItemName"`
	ItemCode string `json:"ItemCode"`
}

// Data is the in-memory reference set. Carts and hangers are loaded once
// after login; bin locations and items are replaced by each harvest
// lookup. Replaced wholesale, never patched.
type Data struct {
	Carts        []Cart
	Hangers      []Hanger
	BinLocations []BinLocation
	Items        []Item
}

// ResolveCart matches scanned text against cart names, exact but
// case-insensitive.
func (d *Data) ResolveCart(input string) (*Cart, bool) {
	text := strings.TrimSpace(input)
	for i := range d.Carts {
		if d.Carts[i].Name != "" && strings.EqualFold(d.Carts[i].Name, text) {
			return &d.Carts[i], true
		}
	}
	return nil, false
}

func (d *Data) ResolveHanger(input string) (*Hanger, bool) {
	text := strings.TrimSpace(input)
	for i := range d.Hangers {
		if d.Hangers[i].Name != "" && strings.EqualFold(d.Hangers[i].Name, text) {
			return &d.Hangers[i], true
		}
	}
	return nil, false
}
