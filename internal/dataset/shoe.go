package dataset

import (
	"math"
	"strconv"
)

// Shoe is one typed row of the dataset. Missing numbers are NaN, missing text
// is empty.
type Shoe struct {
	Name          string  `json:"shoe"`
	SKU           string  `json:"sku"`
	Nickname      string  `json:"nickname"`
	Rank          float64 `json:"rank"`
	Price         float64 `json:"price"`
	ReleaseDate   string  `json:"release_date"`
	DaysFromMarch int     `json:"daysfrommarch"`
	Designer      string  `json:"designer"`
	MainColor     string  `json:"main_color"`
	Technology    string  `json:"technology"`
	Category      string  `json:"category"`
	ProductLink   string  `json:"productlink"`
}

// shoeColumns is the column order used when a frame is rebuilt from shoes.
var shoeColumns = []string{
	Name, SKU, Nickname, Rank, Price, ReleaseDate, DaysFromMarch,
	Designer, MainColor, Technology, Category, ProductLink,
}

// Shoes returns the rows as typed records.
func (f *Frame) Shoes() []Shoe {
	n := f.Len()
	if n == 0 {
		return nil
	}

	text := func(col string) func(int) string {
		if !f.Has(col) {
			return func(int) string { return "" }
		}
		s := f.df.Col(col)
		return func(i int) string {
			e := s.Elem(i)
			if e.IsNA() {
				return ""
			}
			return elemString(e)
		}
	}
	number := func(col string) func(int) float64 {
		if !f.Has(col) {
			return func(int) float64 { return math.NaN() }
		}
		s := f.df.Col(col)
		return func(i int) float64 { return s.Elem(i).Float() }
	}

	name, sku, nick := text(Name), text(SKU), text(Nickname)
	rank, price, days := number(Rank), number(Price), number(DaysFromMarch)
	release, designer, colour := text(ReleaseDate), text(Designer), text(MainColor)
	tech, category, link := text(Technology), text(Category), text(ProductLink)

	shoes := make([]Shoe, n)
	for i := range shoes {
		d := days(i)
		shoes[i] = Shoe{
			Name:        name(i),
			SKU:         sku(i),
			Nickname:    nick(i),
			Rank:        rank(i),
			Price:       price(i),
			ReleaseDate: release(i),
			Designer:    designer(i),
			MainColor:   colour(i),
			Technology:  tech(i),
			Category:    category(i),
			ProductLink: link(i),
		}
		if !math.IsNaN(d) {
			shoes[i].DaysFromMarch = int(d)
		}
	}
	return shoes
}

// FromShoes rebuilds a frame from typed records, re-running the cleaning so
// daysfrommarch is recomputed against opts.Reference.
func FromShoes(shoes []Shoe, opts Options) (*Frame, error) {
	records := make([][]string, 0, len(shoes)+1)
	records = append(records, append([]string(nil), shoeColumns...))
	for _, s := range shoes {
		records = append(records, []string{
			s.Name, s.SKU, s.Nickname,
			formatFloat(s.Rank), formatFloat(s.Price),
			s.ReleaseDate, strconv.Itoa(s.DaysFromMarch),
			s.Designer, s.MainColor, s.Technology, s.Category, s.ProductLink,
		})
	}
	return FromRecords(records, opts)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
