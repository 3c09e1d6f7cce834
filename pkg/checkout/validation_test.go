package checkout

import (
	"reflect"
	"testing"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

func TestValidateCustomer_Complete(t *testing.T) {
	details := CustomerDetails{
		Name:    "Rina Wijaya",
		Phone:   "081234567890",
		Address: "Jl. Kemang Raya No. 10",
	}
	if err := ValidateCustomer(details); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateCustomer_MissingFields(t *testing.T) {
	err := ValidateCustomer(CustomerDetails{Name: "Rina", Phone: "   ", Address: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if typed.Message() != MsgIncompleteDetails {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	want := []string{"customer_phone", "customer_address"}
	if got := details["missing_fields"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected missing fields %v, got %v", want, got)
	}
}

func TestNormalizeTrimsFields(t *testing.T) {
	got := CustomerDetails{Name: "  Rina ", Phone: "\t0812\n", Address: " Jl. Kemang "}.Normalize()
	want := CustomerDetails{Name: "Rina", Phone: "0812", Address: "Jl. Kemang"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestValidateTerms(t *testing.T) {
	if err := ValidateTerms(true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err := ValidateTerms(false)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pkgerrors.As(err).Message() != MsgTermsRequired {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}
