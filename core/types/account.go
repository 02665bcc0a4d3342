package types

// Account is the token-custody record for a single address. Balances are
// denominated in base units of the protocol's settlement token. The nonce is
// reserved for the transaction layer and is not consulted by the native
// engines.
type Account struct {
	Nonce   uint64 `json:"nonce"`
	Balance uint64 `json:"balance"`
}
