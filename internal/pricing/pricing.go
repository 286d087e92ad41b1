// Package pricing turns a requested cart into priced order lines and totals.
//
// All arithmetic runs on shopspring/decimal; amounts are rounded to two places
// half away from zero and only converted to float64 at the edges.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

type ItemRequest struct {
	MenuItemID          string
	Quantity            int
	Customizations      []SelectedCustomization
	SpecialInstructions string
}

// SelectedCustomization names a customization group and the options chosen in it.
type SelectedCustomization struct {
	Name    string
	Options []string
}

type Input struct {
	Items     []ItemRequest
	Catalog   map[string]domain.MenuItem
	Vendor    domain.VendorRef
	OrderType domain.OrderType
	// VendorDeliveryFee is nil when the vendor has no fee configured.
	VendorDeliveryFee *float64
	Tip               float64
	Discount          domain.Discount
}

type Result struct {
	Items   []domain.OrderItem
	Pricing domain.Pricing
}

type Engine struct {
	taxRate    decimal.Decimal
	defaultFee decimal.Decimal
}

func NewEngine(taxRate, defaultDeliveryFee float64) *Engine {
	return &Engine{
		taxRate:    decimal.NewFromFloat(taxRate),
		defaultFee: decimal.NewFromFloat(defaultDeliveryFee),
	}
}

func (e *Engine) Price(in Input) (Result, error) {
	if len(in.Items) == 0 {
		return Result{}, domain.NewValidationError("order must contain at least one item")
	}
	if in.Tip < 0 {
		return Result{}, domain.NewValidationError("tip cannot be negative")
	}
	if in.Discount.Amount < 0 {
		return Result{}, domain.NewValidationError("discount cannot be negative")
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, req := range in.Items {
		item, line, err := e.priceLine(req, in)
		if err != nil {
			return Result{}, err
		}
		subtotal = subtotal.Add(line)
		items = append(items, item)
	}

	tax := round2(subtotal.Mul(e.taxRate))

	fee := decimal.Zero
	if in.OrderType != domain.OrderPickup {
		fee = e.defaultFee
		if in.VendorDeliveryFee != nil {
			fee = decimal.NewFromFloat(*in.VendorDeliveryFee)
		}
	}

	tip := decimal.NewFromFloat(in.Tip)
	discount := decimal.NewFromFloat(in.Discount.Amount)
	gross := subtotal.Add(tax).Add(fee).Add(tip)
	if discount.GreaterThan(gross) {
		return Result{}, domain.NewValidationError("discount exceeds order amount")
	}

	return Result{
		Items: items,
		Pricing: domain.Pricing{
			Subtotal:    round2(subtotal).InexactFloat64(),
			TaxAmount:   tax.InexactFloat64(),
			DeliveryFee: round2(fee).InexactFloat64(),
			Tip:         round2(tip).InexactFloat64(),
			Discount: domain.Discount{
				Amount: round2(discount).InexactFloat64(),
				Code:   in.Discount.Code,
			},
			TotalAmount: round2(gross.Sub(discount)).InexactFloat64(),
		},
	}, nil
}

func (e *Engine) priceLine(req ItemRequest, in Input) (domain.OrderItem, decimal.Decimal, error) {
	mi, ok := in.Catalog[req.MenuItemID]
	if !ok {
		return domain.OrderItem{}, decimal.Zero, &domain.NotFoundError{Resource: "menu item", ID: req.MenuItemID}
	}
	if req.Quantity < 1 {
		return domain.OrderItem{}, decimal.Zero, domain.NewValidationError("quantity for %s must be at least 1", req.MenuItemID)
	}
	if in.Vendor.ID != "" && mi.Vendor != in.Vendor {
		return domain.OrderItem{}, decimal.Zero, domain.NewValidationError("menu item %s does not belong to the selected vendor", req.MenuItemID)
	}
	if !mi.IsAvailable {
		return domain.OrderItem{}, decimal.Zero, domain.NewValidationError("menu item %s is not available", req.MenuItemID)
	}

	qty := decimal.NewFromInt(int64(req.Quantity))
	unit := decimal.NewFromFloat(mi.Price)
	line := unit.Mul(qty)

	chosen, err := resolveCustomizations(mi, req.Customizations)
	if err != nil {
		return domain.OrderItem{}, decimal.Zero, err
	}
	for _, group := range chosen {
		for _, opt := range group.Options {
			line = line.Add(decimal.NewFromFloat(opt.Price).Mul(qty))
		}
	}
	line = round2(line)

	return domain.OrderItem{
		MenuItemID:          mi.ID,
		Name:                mi.Name,
		UnitPrice:           mi.Price,
		Quantity:            req.Quantity,
		Customizations:      chosen,
		SpecialInstructions: req.SpecialInstructions,
		LineTotal:           line.InexactFloat64(),
	}, line, nil
}

// resolveCustomizations looks up option surcharges on the menu item so the
// client never supplies prices.
func resolveCustomizations(mi domain.MenuItem, selected []SelectedCustomization) ([]domain.Customization, error) {
	if len(selected) == 0 {
		return nil, nil
	}
	out := make([]domain.Customization, 0, len(selected))
	for _, sel := range selected {
		group, ok := findGroup(mi.Customizations, sel.Name)
		if !ok {
			return nil, domain.NewValidationError("menu item %s has no customization %q", mi.ID, sel.Name)
		}
		picked := domain.Customization{Name: group.Name, Options: make([]domain.CustomizationOption, 0, len(sel.Options))}
		for _, name := range sel.Options {
			opt, ok := findOption(group.Options, name)
			if !ok {
				return nil, domain.NewValidationError("customization %q has no option %q", group.Name, name)
			}
			picked.Options = append(picked.Options, opt)
		}
		out = append(out, picked)
	}
	return out, nil
}

func findGroup(groups []domain.Customization, name string) (domain.Customization, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return domain.Customization{}, false
}

func findOption(opts []domain.CustomizationOption, name string) (domain.CustomizationOption, bool) {
	for _, o := range opts {
		if o.Name == name {
			return o, true
		}
	}
	return domain.CustomizationOption{}, false
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return round2(decimal.NewFromFloat(f)).InexactFloat64()
}
