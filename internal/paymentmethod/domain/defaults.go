package domain

// Defaults are the payment methods every store starts with. They are matched
// by code, so editing a name or instructions here updates existing rows on
// the next start.
var Defaults = []PaymentMethod{
	{
		Name:          "Bank Transfer",
		Code:          "bank_transfer",
		Description:   "Transfer the order total to our bank account and upload the deposit slip.",
		Instructions:  "<p><strong>Bank:</strong> HSBC<br><strong>Account:</strong> 123-456-789</p>",
		RequiresProof: true,
		SortOrder:     10,
	},
	{
		Name:          "FPS",
		Code:          "fps",
		Description:   "Pay instantly with the Faster Payment System.",
		Instructions:  "<p><strong>FPS ID:</strong> 1234567</p>",
		RequiresProof: true,
		SortOrder:     20,
	},
	{
		Name:          "PayMe",
		Code:          "payme",
		Description:   "Pay with PayMe.",
		Instructions:  "<p>Scan the PayMe QR code to pay.</p>",
		RequiresProof: true,
		SortOrder:     30,
	},
	{
		Name:          "Credit Card",
		Code:          "credit_card",
		Description:   "Pay online by credit card.",
		Instructions:  "<p>Card payments are confirmed automatically.</p>",
		RequiresProof: false,
		SortOrder:     40,
	},
	{
		Name:          "Cash on Delivery",
		Code:          "cod",
		Description:   "Pay the courier in cash on delivery.",
		Instructions:  "<p>Please prepare the exact amount.</p>",
		RequiresProof: false,
		SortOrder:     50,
	},
}
