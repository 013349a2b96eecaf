package command

import (
	"fmt"
	"regexp"
	"strconv"
)

// Account references look like 12345/10.1.2.3: a five-digit account number, a
// slash, and a dotted bank code whose octets are 1-4 digits each. The octets
// are deliberately not range-checked against 0-255; peers rely on this
// permissiveness, so tightening it would break interoperability.
var (
	accountRefPattern = regexp.MustCompile(`^(\d{5})/(\d{1,4}\.\d{1,4}\.\d{1,4}\.\d{1,4})$`)
	amountPattern     = regexp.MustCompile(`^(\d{5})/(\d{1,4}\.\d{1,4}\.\d{1,4}\.\d{1,4}) (\d{1,19})$`)
)

// invalidParamsError is reported to the peer verbatim, prefixed with "ER ".
type invalidParamsError struct {
	usage string
}

func (e *invalidParamsError) Error() string {
	return fmt.Sprintf("Invalid parameters (usage: %s).", e.usage)
}

// parseNone rejects any present parameter string, even an empty or
// whitespace-only one. Verbs without parameters accept only the bare verb.
func parseNone(req Request, verb string) error {
	if req.HasParams {
		return &invalidParamsError{usage: verb}
	}
	return nil
}

// parseAccountRef parses "<account_number>/<bank_code>".
func parseAccountRef(req Request, verb string) (number int, bankCode string, err error) {
	usage := verb + " <account_number>/<bank_code>"
	if !req.HasParams {
		return 0, "", &invalidParamsError{usage: usage}
	}
	m := accountRefPattern.FindStringSubmatch(req.Params)
	if m == nil {
		return 0, "", &invalidParamsError{usage: usage}
	}
	number, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", &invalidParamsError{usage: usage}
	}
	return number, m[2], nil
}

// parseAmountRef parses "<account_number>/<bank_code> <amount>". An amount
// token that overflows int64 is a parse failure, never a silent wrap.
func parseAmountRef(req Request, verb string) (number int, bankCode string, amount int64, err error) {
	usage := verb + " <account_number>/<bank_code> <amount>"
	if !req.HasParams {
		return 0, "", 0, &invalidParamsError{usage: usage}
	}
	m := amountPattern.FindStringSubmatch(req.Params)
	if m == nil {
		return 0, "", 0, &invalidParamsError{usage: usage}
	}
	number, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", 0, &invalidParamsError{usage: usage}
	}
	amount, err = strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return 0, "", 0, &invalidParamsError{usage: usage}
	}
	return number, m[2], amount, nil
}
