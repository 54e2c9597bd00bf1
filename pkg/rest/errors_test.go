package rest

import (
	"errors"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{400, KindBadRequest},
		{401, KindInvalidToken},
		{403, KindNotPermitted},
		{404, KindNotFound},
		{429, KindRateLimited},
		{502, KindGatewayUnavailable},
		{500, KindResponse},
		{418, KindResponse},
	}
	for _, tc := range cases {
		if got := classifyStatus(tc.status); got != tc.want {
			t.Errorf("classifyStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{Kind: KindNotFound, StatusCode: 404, Code: 10003, Message: "Unknown Channel"}
	msg := e.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}

	plain := &APIError{Kind: KindRateLimited, StatusCode: 429}
	if plain.Error() == "" {
		t.Fatal("expected non-empty error message without a body")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{Kind: KindNotFound, StatusCode: 404}) {
		t.Error("expected IsNotFound=true for a 404 APIError")
	}
	if IsNotFound(&APIError{Kind: KindBadRequest, StatusCode: 400}) {
		t.Error("expected IsNotFound=false for a 400 APIError")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("expected IsNotFound=false for an unrelated error")
	}
}
