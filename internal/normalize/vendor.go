package normalize

import (
	"regexp"
	"strings"

	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// Ordered vendor patterns; the first match wins. Capture group 1 is the
// vendor name.
var vendorPatterns = []*regexp.Regexp{
	// ACH originator: "ORIG CO NAME:MDCBUILDINGS ID:123 ORIG ID:456"
	regexp.MustCompile(`ORIG CO NAME:(.+?)\s+(?:ORIG\s+)?ID:`),
	// Peer payment sender/recipient.
	regexp.MustCompile(`(?i)Zelle payment (?:from|to)\s+([A-Za-z][A-Za-z .'-]*[A-Za-z.])`),
	// Bill-pay payee: "Online Payment 123456 To Acme Landscaping"
	regexp.MustCompile(`(?i)Payment\s+\d+\s+To\s+([A-Za-z0-9][A-Za-z0-9 .&'-]*)`),
	// Wire beneficiary.
	regexp.MustCompile(`(?i)BNF=([^,/;]+)`),
	// Generic "paid to".
	regexp.MustCompile(`(?i)paid to\s+([A-Za-z0-9][A-Za-z0-9 .&'-]*)`),
}

// maxBareSegmentLen caps the fallback first-whitespace-segment vendor guess;
// anything longer is noise, not a name.
const maxBareSegmentLen = 20

// Fixed labels for rows whose vendor is structural, not a counterparty.
const (
	labelTransfer     = "Transfer"
	labelCheckDeposit = "Check Deposit"
)

// ExtractVendor pulls a best-guess vendor from the description. The result
// is a non-authoritative hint: classification treats it as one signal among
// several, never as ground truth.
func ExtractVendor(desc string, txType domain.TransactionType, detail string) string {
	if txType.IsTransfer() {
		return labelTransfer
	}
	if detail == "DSLIP" || strings.Contains(strings.ToUpper(desc), "CHECK_DEPOSIT") {
		return labelCheckDeposit
	}

	for _, re := range vendorPatterns {
		if m := re.FindStringSubmatch(desc); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	// Fallback: first short whitespace segment.
	fields := strings.Fields(desc)
	if len(fields) > 0 && len(fields[0]) <= maxBareSegmentLen {
		return fields[0]
	}
	return ""
}

// Ordered suffix patterns; capture group 1 is the 4-digit account suffix.
var suffixPatterns = []*regexp.Regexp{
	// Ellipsis digits: "...7011" (ASCII or unicode ellipsis).
	regexp.MustCompile(`(?:\.{3}|…)(\d{4})`),
	regexp.MustCompile(`(?i)\bChk\s*(?:\.{3})?\s*(\d{4})`),
	regexp.MustCompile(`(?i)\bMma\s*(?:\.{3})?\s*(\d{4})`),
	regexp.MustCompile(`(?i)\bAccount\s*(?:ending\s*(?:in\s*)?)?(\d{4})`),
}

// ExtractTargetSuffix finds the last-4-digits account reference in a
// transfer description. Empty when no pattern matches.
func ExtractTargetSuffix(desc string) string {
	for _, re := range suffixPatterns {
		if m := re.FindStringSubmatch(desc); m != nil {
			return m[1]
		}
	}
	return ""
}
