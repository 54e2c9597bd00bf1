package rest

import "testing"

func TestGetOptional_Present(t *testing.T) {
	opt, err := GetOptional(func(out *string) error {
		*out = "hello"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opt.Present || opt.Value != "hello" {
		t.Errorf("opt = %+v, want Present=true Value=hello", opt)
	}
}

func TestGetOptional_NotFoundBecomesAbsent(t *testing.T) {
	opt, err := GetOptional(func(out *string) error {
		return &APIError{Kind: KindNotFound, StatusCode: 404}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Present {
		t.Error("expected Present=false for a not-found result")
	}
}

func TestGetOptional_OtherErrorsPropagate(t *testing.T) {
	_, err := GetOptional(func(out *string) error {
		return &APIError{Kind: KindRateLimited, StatusCode: 429}
	})
	if err == nil {
		t.Fatal("expected error to propagate for non-not-found failures")
	}
}
