package checkout

import (
	"strings"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

const (
	MsgIncompleteDetails = "please complete all order information"
	MsgTermsRequired     = "please accept the terms and conditions"
)

// CustomerDetails are the buyer fields every order needs.
type CustomerDetails struct {
	Name    string
	Phone   string
	Address string
}

// Normalize trims surrounding whitespace from every field.
func (c CustomerDetails) Normalize() CustomerDetails {
	return CustomerDetails{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

// ValidateCustomer ensures name, phone and address are present after trimming.
func ValidateCustomer(details CustomerDetails) error {
	details = details.Normalize()

	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{name: "customer_name", value: details.Name},
		{name: "customer_phone", value: details.Phone},
		{name: "customer_address", value: details.Address},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, MsgIncompleteDetails).WithDetails(map[string]any{
		"missing_fields": missing,
	})
}

// ValidateTerms rejects submissions where the buyer did not accept the terms.
func ValidateTerms(agreed bool) error {
	if agreed {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, MsgTermsRequired).WithDetails(map[string]any{
		"field": "agreed_to_terms",
	})
}
