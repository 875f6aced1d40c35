// Package testutil holds shared fixtures for flowgen tests: recorded flows,
// golden-file assertions, a deterministic clock and fixed run ids.
package testutil

import "github.com/roach88/flowgen/internal/ir"

// InvoiceFlow is a recorded "create invoice" session. It covers every action
// kind, a collision-suffixed field (two Amount inputs), a reused locator and
// an action-only fill.
func InvoiceFlow() ir.Flow {
	return ir.Flow{
		TestCaseID: "Create Invoice 01",
		PageName:   "InvoicePage",
		TestName:   "createInvoice",
		Steps: []ir.RecordedStep{
			{Ordinal: 1, Action: ir.ActionNavigate, Value: "https://erp.example.com/invoices/new"},
			{Ordinal: 2, Action: ir.ActionFill, TargetLabel: "Customer", Locator: "//input[@id='customer']",
				Alternatives: []string{"data-testid=customer"}, Value: "ACME"},
			{Ordinal: 3, Action: ir.ActionFill, TargetLabel: "Amount", Locator: "#line-1 input[name='amount']", Value: "100"},
			{Ordinal: 4, Action: ir.ActionClick, TargetLabel: "Add Line Button", Locator: `role=button[name="Add line"]`},
			{Ordinal: 5, Action: ir.ActionFill, TargetLabel: "Amount", Locator: "#line-2 input[name='amount']", Value: "250"},
			{Ordinal: 6, Action: ir.ActionFill, TargetLabel: "Search Icon", Locator: "css=.search-icon input", Value: "it's urgent"},
			{Ordinal: 7, Action: ir.ActionClick, TargetLabel: "Save and Close", Locator: "text=Save and close"},
			{Ordinal: 8, Action: ir.ActionAssert, TargetLabel: "Status", Locator: "#status", Value: "Saved"},
			{Ordinal: 9, Action: ir.ActionAssert, TargetLabel: "Customer", Locator: "data-testid=customer"},
		},
	}
}

// LoginFlow is a short flow without collisions.
func LoginFlow() ir.Flow {
	return ir.Flow{
		TestCaseID: "login 02",
		PageName:   "LoginPage",
		TestName:   "login",
		Steps: []ir.RecordedStep{
			{Ordinal: 10, Action: ir.ActionNavigate, TargetLabel: "https://erp.example.com/login"},
			{Ordinal: 20, Action: ir.ActionFill, TargetLabel: "User Name", Locator: `internal:label="User name"i`},
			{Ordinal: 30, Action: ir.ActionFill, TargetLabel: "Password", Locator: `internal:attr=[placeholder="Password"i]`},
			{Ordinal: 40, Action: ir.ActionClick, TargetLabel: "Sign in", Locator: `role=button[name="Sign in"]`},
		},
	}
}

// Ordinals returns the ordinals of steps in order.
func Ordinals(steps []ir.RecordedStep) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Ordinal
	}
	return out
}
