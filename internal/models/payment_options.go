package models

// BankDetails are the account details shown to tenants paying by bank transfer.
type BankDetails struct {
	BankName          string `json:"bankName"`
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	IFSCCode          string `json:"ifscCode"`
	Branch            string `json:"branch"`
}

// PaymentOptions are the payment instructions shown to tenants.
type PaymentOptions struct {
	UPIID       string      `json:"upiId"`
	QRCode      string      `json:"qrCode"`
	BankDetails BankDetails `json:"bankDetails"`
}
