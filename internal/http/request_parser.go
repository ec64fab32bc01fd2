// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// ParseItemForm builds an item from the name, price, date, category and want
// fields of a row form. Missing date, category and want fall back to today,
// Other and Need, like freshly extracted receipt lines.
func ParseItemForm(form url.Values, today core.Date) (core.Item, error) {
	name := sanitizeInput(form.Get("name"))
	if name == "" {
		return core.Item{}, core.ErrEmptyName
	}

	price, err := core.ParsePrice(form.Get("price"))
	if err != nil {
		return core.Item{}, err
	}

	item := core.NewItem(name, price, today)

	if v := strings.TrimSpace(form.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Item{}, err
		}
		item.Date = d
	}
	if v := strings.TrimSpace(form.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return core.Item{}, err
		}
		item.Category = c
	}
	if v := strings.TrimSpace(form.Get("want")); v != "" {
		w, err := core.ParseWantOrNeed(v)
		if err != nil {
			return core.Item{}, err
		}
		item.WantOrNeed = w
	}

	if err := item.Validate(); err != nil {
		return core.Item{}, err
	}
	return item, nil
}

// ParseBudgetGoal reads the goal field. Blank means no goal.
func ParseBudgetGoal(form url.Values) (decimal.Decimal, error) {
	v := strings.TrimSpace(form.Get("goal"))
	if v == "" {
		return decimal.Zero, nil
	}
	return core.ParsePrice(v)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponse {
	if err := r.ParseForm(); err != nil {
		return Fail(http.StatusBadRequest, "Invalid request format")
	}
	return nil
}
