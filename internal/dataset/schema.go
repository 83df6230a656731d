package dataset

import "strings"

// Canonical column names.
const (
	Rank          = "rank"
	Price         = "price"
	ReleaseDate   = "ReleaseDate"
	DaysFromMarch = "daysfrommarch"
	Designer      = "Designer"
	MainColor     = "MainColor"
	Technology    = "Technology"
	Category      = "Category"
	SKU           = "SKU"
	Nickname      = "Nickname"
	Name          = "shoe"
	ProductLink   = "productlink"
)

// The dataset has shipped with both dotted and concatenated headers
// (Release.Date vs ReleaseDate); everything is normalised to the latter.
var aliases = map[string]string{
	"release.date": ReleaseDate,
	"releasedate":  ReleaseDate,
	"release_date": ReleaseDate,
	"main.color":   MainColor,
	"maincolor":    MainColor,
	"main_color":   MainColor,
	"name":         Name,
	"shoe":         Name,
	"product_link": ProductLink,
	"productlink":  ProductLink,
	"link":         ProductLink,
}

// Canonical returns the canonical spelling of a column header.
func Canonical(header string) string {
	h := strings.TrimSpace(header)
	if c, ok := aliases[strings.ToLower(h)]; ok {
		return c
	}
	return h
}

// normalizeHeader rewrites aliases in place. An alias is left alone when its
// canonical name is already taken by another column.
func normalizeHeader(header []string) {
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		taken[header[i]] = true
	}
	for i, h := range header {
		c := Canonical(h)
		if c == h || taken[c] {
			continue
		}
		taken[c] = true
		header[i] = c
	}
}

// textColumns are always loaded as strings regardless of their content.
var textColumns = []string{ReleaseDate, SKU, Nickname, Name, ProductLink}

// numericColumns are always loaded as floats; unparsable cells become missing.
var numericColumns = []string{Rank, Price}

var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "NaT", "null", "None", "<nil>"}
