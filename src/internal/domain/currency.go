package domain

import (
	"fmt"
	"sort"
	"strings"
)

type Currency string

const (
	CurrencyRUR Currency = "RUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBT Currency = "GBT"
)

var supportedCurrencies = map[string]Currency{
	string(CurrencyRUR): CurrencyRUR,
	string(CurrencyUSD): CurrencyUSD,
	string(CurrencyGBT): CurrencyGBT,
}

// ParseCurrency resolves a currency code case-insensitively against the supported set.
func ParseCurrency(code string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	currency, ok := supportedCurrencies[normalized]
	if !ok {
		return "", NewValidationError("currency", fmt.Sprintf("currency code=%s isn't supported, must be one of %s", code, strings.Join(SupportedCurrencyCodes(), ", ")))
	}

	return currency, nil
}

func SupportedCurrencyCodes() []string {
	codes := make([]string, 0, len(supportedCurrencies))
	for code := range supportedCurrencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
