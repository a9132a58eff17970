package exchange

// Provider deposit statuses.
const (
	StatusPending = 0
	StatusSuccess = 1
	StatusFailed  = 2
)

// DepositEvent is one deposit observed on the provider side. Amounts arrive
// string-encoded; InsertTime is epoch milliseconds.
type DepositEvent struct {
	TxID          string  `json:"txId"`
	Amount        float64 `json:"amount,string"`
	Asset         string  `json:"asset"`
	Network       string  `json:"network"`
	Status        int     `json:"status"`
	Address       string  `json:"address"`
	InsertTime    int64   `json:"insertTime"`
	Confirmations int     `json:"confirmations"`
}

// Settled reports whether the provider considers the deposit final with at
// least minConfirmations confirmations.
func (e *DepositEvent) Settled(minConfirmations int) bool {
	return e.Status == StatusSuccess && e.Confirmations >= minConfirmations
}
