package checkout

import (
	"errors"
	"testing"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/store"
)

func TestSummarizeUsesStoredSnapshots(t *testing.T) {
	items := []store.CartItem{
		{Qty: 2, UnitPrice: 14925, RegularPrice: 19900, Subtotal: 29850},
		{Qty: 1, UnitPrice: 5000, RegularPrice: 5000, Subtotal: 5000},
	}

	summary := Summarize(items, 1000, 1500)
	if summary.Subtotal != 34850 {
		t.Fatalf("subtotal = %d, want 34850", summary.Subtotal)
	}
	if summary.Savings != 9950 {
		t.Fatalf("savings = %d, want 9950", summary.Savings)
	}
	if summary.Tax != 3485 {
		t.Fatalf("tax = %d, want 3485", summary.Tax)
	}
	if summary.Total != 34850+3485+1500 {
		t.Fatalf("total = %d, want %d", summary.Total, 34850+3485+1500)
	}
}

func TestSummarizeEmptyCart(t *testing.T) {
	summary := Summarize(nil, 1000, 0)
	if summary.Subtotal != 0 || summary.Total != 0 {
		t.Fatalf("empty cart should total zero, got %+v", summary)
	}
}

func TestShippingRate(t *testing.T) {
	if rate, err := ShippingRate(""); err != nil || rate != 0 {
		t.Fatalf("default method: rate=%d err=%v", rate, err)
	}
	if rate, err := ShippingRate(ShippingStandard); err != nil || rate != 0 {
		t.Fatalf("standard: rate=%d err=%v", rate, err)
	}
	if rate, err := ShippingRate(ShippingExpress); err != nil || rate != expressRate {
		t.Fatalf("express: rate=%d err=%v", rate, err)
	}

	_, err := ShippingRate("drone")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("unknown method should be a validation error, got %v", err)
	}
}
