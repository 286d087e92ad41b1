package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

var testVendor = domain.VendorRef{Type: domain.VendorRestaurant, ID: "r1"}

func testCatalog() map[string]domain.MenuItem {
	return map[string]domain.MenuItem{
		"burger": {ID: "burger", Vendor: testVendor, Name: "Burger", Price: 100, IsAvailable: true,
			Customizations: []domain.Customization{
				{Name: "Extras", Options: []domain.CustomizationOption{{Name: "Cheese", Price: 15}, {Name: "Bacon", Price: 25.5}}},
				{Name: "Size", Options: []domain.CustomizationOption{{Name: "Large", Price: 30}}},
			}},
		"fries":   {ID: "fries", Vendor: testVendor, Name: "Fries", Price: 50, IsAvailable: true},
		"soldout": {ID: "soldout", Vendor: testVendor, Name: "Shake", Price: 80, IsAvailable: false},
		"foreign": {ID: "foreign", Vendor: domain.VendorRef{Type: domain.VendorCloudKitchen, ID: "k9"}, Name: "Pho", Price: 120, IsAvailable: true},
		"cheap":   {ID: "cheap", Vendor: testVendor, Name: "Mint", Price: 1.25, IsAvailable: true},
	}
}

func basicCart() []ItemRequest {
	return []ItemRequest{
		{MenuItemID: "burger", Quantity: 2},
		{MenuItemID: "fries", Quantity: 1},
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestEngine_Price(t *testing.T) {
	engine := NewEngine(0.18, 40)

	testCases := map[string]struct {
		input           Input
		expectedPricing domain.Pricing
		expectedLines   []float64
	}{
		"should price delivery order with default fee": {
			input: Input{Items: basicCart(), Catalog: testCatalog(), Vendor: testVendor, OrderType: domain.OrderDelivery},
			expectedPricing: domain.Pricing{
				Subtotal: 250, TaxAmount: 45, DeliveryFee: 40, TotalAmount: 335,
			},
			expectedLines: []float64{200, 50},
		},
		"should waive delivery fee for pickup": {
			input: Input{Items: basicCart(), Catalog: testCatalog(), Vendor: testVendor, OrderType: domain.OrderPickup},
			expectedPricing: domain.Pricing{
				Subtotal: 250, TaxAmount: 45, DeliveryFee: 0, TotalAmount: 295,
			},
			expectedLines: []float64{200, 50},
		},
		"should use vendor configured fee, tip and discount": {
			input: Input{
				Items: basicCart(), Catalog: testCatalog(), Vendor: testVendor, OrderType: domain.OrderDelivery,
				VendorDeliveryFee: floatPtr(25), Tip: 20, Discount: domain.Discount{Amount: 30, Code: "SAVE30"},
			},
			expectedPricing: domain.Pricing{
				Subtotal: 250, TaxAmount: 45, DeliveryFee: 25, Tip: 20,
				Discount: domain.Discount{Amount: 30, Code: "SAVE30"}, TotalAmount: 310,
			},
			expectedLines: []float64{200, 50},
		},
		"should add customization surcharges per quantity": {
			input: Input{
				Items: []ItemRequest{{
					MenuItemID: "burger", Quantity: 2,
					Customizations: []SelectedCustomization{
						{Name: "Extras", Options: []string{"Cheese", "Bacon"}},
						{Name: "Size", Options: []string{"Large"}},
					},
				}},
				Catalog: testCatalog(), Vendor: testVendor, OrderType: domain.OrderPickup,
			},
			// 100*2 + (15+25.5+30)*2 = 341
			expectedPricing: domain.Pricing{
				Subtotal: 341, TaxAmount: 61.38, TotalAmount: 402.38,
			},
			expectedLines: []float64{341},
		},
		"should round tax half away from zero": {
			input: Input{
				Items:   []ItemRequest{{MenuItemID: "cheap", Quantity: 1}},
				Catalog: testCatalog(), Vendor: testVendor, OrderType: domain.OrderPickup,
			},
			// 1.25 * 0.18 = 0.225
			expectedPricing: domain.Pricing{
				Subtotal: 1.25, TaxAmount: 0.23, TotalAmount: 1.48,
			},
			expectedLines: []float64{1.25},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			res, err := engine.Price(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPricing, res.Pricing)

			require.Len(t, res.Items, len(tc.expectedLines))
			for i, want := range tc.expectedLines {
				assert.Equal(t, want, res.Items[i].LineTotal)
			}
		})
	}
}

func TestEngine_PriceSnapshotsCatalog(t *testing.T) {
	engine := NewEngine(0.18, 40)
	catalog := testCatalog()

	res, err := engine.Price(Input{Items: basicCart(), Catalog: catalog, Vendor: testVendor})
	require.NoError(t, err)

	catalog["burger"] = domain.MenuItem{ID: "burger", Name: "Renamed", Price: 999}

	assert.Equal(t, "Burger", res.Items[0].Name)
	assert.Equal(t, 100.0, res.Items[0].UnitPrice)
}

func TestEngine_PriceErrors(t *testing.T) {
	engine := NewEngine(0.18, 40)

	testCases := map[string]struct {
		input          Input
		expectNotFound bool
		expectedError  string
	}{
		"should reject empty cart": {
			input:         Input{Catalog: testCatalog(), Vendor: testVendor},
			expectedError: "at least one item",
		},
		"should report unknown menu item": {
			input:          Input{Items: []ItemRequest{{MenuItemID: "ghost", Quantity: 1}}, Catalog: testCatalog(), Vendor: testVendor},
			expectNotFound: true,
			expectedError:  "menu item ghost not found",
		},
		"should reject zero quantity": {
			input:         Input{Items: []ItemRequest{{MenuItemID: "fries", Quantity: 0}}, Catalog: testCatalog(), Vendor: testVendor},
			expectedError: "at least 1",
		},
		"should reject item from another vendor": {
			input:         Input{Items: []ItemRequest{{MenuItemID: "foreign", Quantity: 1}}, Catalog: testCatalog(), Vendor: testVendor},
			expectedError: "does not belong",
		},
		"should reject unavailable item": {
			input:         Input{Items: []ItemRequest{{MenuItemID: "soldout", Quantity: 1}}, Catalog: testCatalog(), Vendor: testVendor},
			expectedError: "not available",
		},
		"should reject unknown customization option": {
			input: Input{Items: []ItemRequest{{MenuItemID: "burger", Quantity: 1,
				Customizations: []SelectedCustomization{{Name: "Extras", Options: []string{"Truffle"}}}}},
				Catalog: testCatalog(), Vendor: testVendor},
			expectedError: "no option",
		},
		"should reject negative tip": {
			input:         Input{Items: basicCart(), Catalog: testCatalog(), Vendor: testVendor, Tip: -1},
			expectedError: "tip cannot be negative",
		},
		"should reject discount larger than order": {
			input: Input{Items: basicCart(), Catalog: testCatalog(), Vendor: testVendor,
				Discount: domain.Discount{Amount: 1000}},
			expectedError: "discount exceeds",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Price(tc.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)

			var nf *domain.NotFoundError
			var ve *domain.ValidationError
			if tc.expectNotFound {
				assert.True(t, errors.As(err, &nf))
			} else {
				assert.True(t, errors.As(err, &ve))
			}
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 335.0, Round2(335.004))
}
