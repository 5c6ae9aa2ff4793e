package dto

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username: "  alice  ",
		Currency: " eur ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "eur", req.Currency)
}

func TestSanitizeStruct_SkipsPasswords(t *testing.T) {
	req := LoginRequest{Username: " bob ", Password: "  p<a>ss  "}
	SanitizeStruct(&req)

	assert.Equal(t, "bob", req.Username)
	assert.Equal(t, "  p<a>ss  ", req.Password)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := MutationRequest{Username: "<script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Username, "&lt;script&gt;")
	assert.NotContains(t, req.Username, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	id := "  7f9c1a52-3c1e-4d6f-9a57-0a4b9b1e2c11  "
	req := MutationRequest{UserID: &id, Amount: decimal.NewFromInt(5)}
	SanitizeStruct(&req)

	assert.Equal(t, "7f9c1a52-3c1e-4d6f-9a57-0a4b9b1e2c11", *req.UserID)
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(5)))
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := MutationRequest{Username: "carol"}
	SanitizeStruct(&req)
	assert.Nil(t, req.UserID)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"alice",
		"bob_2",
		"a.b.c",
		"carol-smith",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"al ice",       // space
		"bob<1>",       // angle brackets
		"x;DROP",       // semicolon
		"",             // empty
		"   ",          // blank
		"carol\nsmith", // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %q", tc)
	}
}

func TestIdempotencyKey(t *testing.T) {
	assert.True(t, ValidIdempotencyKey("order-7"))
	assert.True(t, ValidIdempotencyKey("3b2d6c1e.retry_1"))
	assert.False(t, ValidIdempotencyKey(""))
	assert.False(t, ValidIdempotencyKey("has space"))
	assert.False(t, ValidIdempotencyKey(strings.Repeat("k", 129)))
}

func TestBinding_RegisterRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   RegisterRequest
		valid bool
	}{
		{"minimal", RegisterRequest{Username: "alice", Password: "pw1"}, true},
		{"with currency", RegisterRequest{Username: "alice", Password: "pw1", Currency: "eur"}, true},
		{"empty username", RegisterRequest{Password: "pw1"}, false},
		{"empty password", RegisterRequest{Username: "alice"}, false},
		{"unsafe username", RegisterRequest{Username: "al ice", Password: "pw1"}, false},
		{"malformed currency", RegisterRequest{Username: "alice", Password: "pw1", Currency: "EURO"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBinding_TransferRequest(t *testing.T) {
	ok := TransferRequest{
		SenderWalletID:    "7f9c1a52-3c1e-4d6f-9a57-0a4b9b1e2c11",
		RecipientWalletID: "0c1d2e3f-4a5b-4c6d-8e7f-8091a2b3c4d5",
		Amount:            decimal.RequireFromString("10.50"),
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&ok))

	bad := ok
	bad.RecipientWalletID = "not-a-uuid"
	assert.Error(t, binding.Validator.ValidateStruct(&bad))
}
