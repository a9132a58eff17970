/*
Package wallet is the single point of truth for balance mutation.

Every credit, debit, lock and unlock runs inside one database transaction
that holds an exclusive row lock on the affected wallet for its full
duration, writes the wallet row and appends one immutable ledger row per
bucket mutated. Concurrent mutations of the same wallet serialize through
the row lock; the ledger's creation order is the proof of that
serialization.

Idempotency keys make retried calls exactly-once: a mutation whose key
already exists in the wallet's ledger returns the previously recorded
result without touching state.

Other services never mutate balances directly. Multi-wallet operations
(transfers, withdrawal locks) compose mutations through WithinTransaction
so both legs commit or neither does.
*/
package wallet
