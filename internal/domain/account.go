package domain

// FundType is the legal designation of money held in an account. Accounts and
// budget categories both carry one; a mismatch between them is what the
// compliance rules call fund mixing.
type FundType string

const (
	FundOperating         FundType = "operating"
	FundReserve           FundType = "reserve"
	FundSpecialAssessment FundType = "special_assessment"
	FundOther             FundType = "other"
)

// Restricted reports whether money in this fund may not be spent freely.
func (f FundType) Restricted() bool {
	return f == FundReserve || f == FundSpecialAssessment
}

// Account is one association bank account. Read-only input to the engine.
type Account struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          FundType `json:"type"`
	AccountNumber string   `json:"account_number"`
	LegalPurpose  string   `json:"legal_purpose,omitempty"`
}

// Suffix returns the last four digits of the account number, the key used to
// match transfer descriptions against a target account. Empty when the number
// is shorter than four characters.
func (a Account) Suffix() string {
	if len(a.AccountNumber) < 4 {
		return ""
	}
	return a.AccountNumber[len(a.AccountNumber)-4:]
}
