package escrow

import "fmt"

// TradeError is a failure specific to the escrow program. The numeric values
// are stable and surface to callers as the custom error code.
type TradeError uint32

const (
	// ErrWrongAuthority covers a missing signature and a refund or fee target
	// that does not match the derived or recorded identity.
	ErrWrongAuthority TradeError = iota
	// ErrNotAProgram is returned when an account expected to be executable
	// is not.
	ErrNotAProgram
	ErrUnexpectedOfferAmount
	ErrUnexpectedTradeAmount
	ErrTradeNotInitialised
	ErrValueOverflow
	// ErrWrongTokenAccount means the offer account differs from the record.
	ErrWrongTokenAccount
	ErrTradeMintMissmatch
	// ErrUnexpectedAccount is any positional identity check not covered by a
	// more specific code.
	ErrUnexpectedAccount
)

var tradeErrorNames = map[TradeError]string{
	ErrWrongAuthority:        "WrongAuthority",
	ErrNotAProgram:           "NotAProgram",
	ErrUnexpectedOfferAmount: "UnexpectedOfferAmount",
	ErrUnexpectedTradeAmount: "UnexpectedTradeAmount",
	ErrTradeNotInitialised:   "TradeNotInitialised",
	ErrValueOverflow:         "ValueOverflow",
	ErrWrongTokenAccount:     "WrongTokenAccount",
	ErrTradeMintMissmatch:    "TradeMintMissmatch",
	ErrUnexpectedAccount:     "UnexpectedAccount",
}

var tradeErrorMessages = map[TradeError]string{
	ErrWrongAuthority:        "authority mismatch",
	ErrNotAProgram:           "account is not a program",
	ErrUnexpectedOfferAmount: "offer amount differs from the recorded terms",
	ErrUnexpectedTradeAmount: "trade amount differs from the recorded terms",
	ErrTradeNotInitialised:   "trade not initialised",
	ErrValueOverflow:         "value overflow",
	ErrWrongTokenAccount:     "offer account differs from the recorded one",
	ErrTradeMintMissmatch:    "trade mint mismatch",
	ErrUnexpectedAccount:     "unexpected account",
}

func (e TradeError) Name() string {
	if name, ok := tradeErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("TradeError(%d)", uint32(e))
}

func (e TradeError) Error() string {
	if msg, ok := tradeErrorMessages[e]; ok {
		return "escrow: " + msg
	}
	return "escrow: " + e.Name()
}

// CustomCode implements errors.CustomError.
func (e TradeError) CustomCode() uint32 { return uint32(e) }
