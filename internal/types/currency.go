package types

import "strings"

// CurrencyConfig holds the display symbol and the minor-unit precision
// for a 3 digit ISO currency code. Precision drives every rounding
// boundary in fee and invoice computation: 2 for most currencies, 3 for
// mill-based ones like KWD, 0 for currencies without minor units like JPY.
type CurrencyConfig struct {
	Symbol    string
	Precision int32
}

var currencyConfigs = map[string]CurrencyConfig{
	"usd": {Symbol: "$", Precision: 2},
	"eur": {Symbol: "€", Precision: 2},
	"gbp": {Symbol: "£", Precision: 2},
	"aud": {Symbol: "AU$", Precision: 2},
	"cad": {Symbol: "CA$", Precision: 2},
	"chf": {Symbol: "CHF", Precision: 2},
	"sek": {Symbol: "kr", Precision: 2},
	"nzd": {Symbol: "NZ$", Precision: 2},
	"hkd": {Symbol: "HK$", Precision: 2},
	"sgd": {Symbol: "S$", Precision: 2},
	"inr": {Symbol: "₹", Precision: 2},
	"brl": {Symbol: "R$", Precision: 2},
	"mxn": {Symbol: "MX$", Precision: 2},
	"try": {Symbol: "₺", Precision: 2},
	"zar": {Symbol: "R", Precision: 2},
	"myr": {Symbol: "RM", Precision: 2},
	"cny": {Symbol: "¥", Precision: 2},
	"bhd": {Symbol: "BD", Precision: 3},
	"kwd": {Symbol: "KD", Precision: 3},
	"omr": {Symbol: "OMR", Precision: 3},
	"tnd": {Symbol: "DT", Precision: 3},
	"jpy": {Symbol: "¥", Precision: 0},
	"krw": {Symbol: "₩", Precision: 0},
	"vnd": {Symbol: "₫", Precision: 0},
	"clp": {Symbol: "CLP$", Precision: 0},
}

var defaultCurrencyConfig = CurrencyConfig{Symbol: "", Precision: 2}

// GetCurrencyConfig returns the config for a currency code; unknown
// codes fall back to a 2 decimal precision with the code as symbol.
func GetCurrencyConfig(code string) CurrencyConfig {
	if config, ok := currencyConfigs[strings.ToLower(code)]; ok {
		return config
	}
	config := defaultCurrencyConfig
	config.Symbol = code
	return config
}

// GetCurrencyPrecision returns the minor-unit precision for a currency code
func GetCurrencyPrecision(code string) int32 {
	return GetCurrencyConfig(code).Precision
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	return GetCurrencyConfig(code).Symbol
}

// IsValidCurrency reports whether the code is a known 3 digit ISO code
func IsValidCurrency(code string) bool {
	_, ok := currencyConfigs[strings.ToLower(code)]
	return ok
}
