package controller

import (
	"html/template"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/wanderlust/wanderlust/web/locale"
)

var pricePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FuncMap holds the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"i18n":        locale.I18nDefault,
		"formatPrice": formatPrice,
		"plainNumber": plainNumber,
	}
}

// formatPrice groups digits the way prices are shown on the site (1,20,000).
func formatPrice(price float64) string {
	return pricePrinter.Sprint(number.Decimal(price))
}

func plainNumber(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
