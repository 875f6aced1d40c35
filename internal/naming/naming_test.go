package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Amount", "amount"},
		{"Customer Name", "customerName"},
		{"  customer   name  ", "customerName"},
		{"Amount ($)", "amount"},
		{"Save & Close", "saveClose"},
		{"firstName", "firstName"},
		{"HTMLInput", "htmlInput"},
		{"Customer ID", "customerID"},
		{"e-mail address", "eMailAddress"},
		{"1st Name", "field1stName"},
		{"Café Total", "cafeTotal"},
		{"Validate button", "validateButton"},
		{"", ""},
		{"$$ --- !!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelCase(tt.label))
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"create invoice 01", "CreateInvoice01"},
		{"Create Invoice 01", "CreateInvoice01"},
		{"create_invoice-01", "CreateInvoice01"},
		{"  TC 042: login  ", "TC042Login"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Stem(tt.in))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "amount", NormalizeKey("Amount"))
	assert.Equal(t, "customername", NormalizeKey("Customer_Name"))
	assert.Equal(t, "customername", NormalizeKey("customerName"))
	assert.Equal(t, "amount2", NormalizeKey("amount 2"))
}

func TestFirstLetterHelpers(t *testing.T) {
	assert.Equal(t, "invoicePage", LowerFirst("InvoicePage"))
	assert.Equal(t, "InvoicePage", UpperFirst("invoicePage"))
	assert.Equal(t, "", LowerFirst(""))
	assert.Equal(t, "CreateInvoice", PascalCase("create invoice"))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("amount2"))
	assert.True(t, IsIdentifier("_private"))
	assert.False(t, IsIdentifier("2amount"))
	assert.False(t, IsIdentifier("amount-2"))
	assert.False(t, IsIdentifier(""))
}

func TestFoldIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "Creme brulee", Fold("Crème brûlée"))
	}
}

func TestIsReservedWord(t *testing.T) {
	for _, w := range []string{"delete", "new", "class", "await", "let"} {
		assert.True(t, IsReservedWord(w), w)
	}
	for _, w := range []string{"invoicePage", "Delete", "page", ""} {
		assert.False(t, IsReservedWord(w), w)
	}
}
