package dodo

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/contractai/backend/pkg/billing"
)

// CheckoutURL builds a hosted checkout link for the configured product.
// Dodo hosted checkout is link-based, so no API call is made.
func (p *Provider) CheckoutURL(_ context.Context, opts billing.CheckoutOptions) (string, error) {
	if p.config.ProductID == "" {
		return "", billing.ErrProviderNotConfigured
	}

	base := strings.TrimSuffix(p.config.CheckoutBase, "/")

	quantity := opts.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = p.config.ReturnURL
	}
	if redirect == "" {
		return "", billing.ErrMissingRedirectURL
	}

	query := url.Values{}
	query.Set("quantity", strconv.Itoa(quantity))
	for key, value := range map[string]string{
		"redirect_url":     redirect,
		"email":            opts.Email,
		"firstName":        opts.FirstName,
		"lastName":         opts.LastName,
		"disableEmail":     opts.DisableEmail,
		"disableFirstName": opts.DisableFirstName,
		"disableLastName":  opts.DisableLastName,
		"showDiscounts":    opts.ShowDiscounts,
	} {
		if value != "" {
			query.Set(key, value)
		}
	}

	return base + "/" + p.config.ProductID + "?" + query.Encode(), nil
}
