// Package utxo models an unspent transaction output: the pair of a
// transaction input reference and the output it refers to, the unit
// the coin selector and balancer operate over.
package utxo

import (
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/value"
)

// UTxO pairs an input reference with the output it points to.
type UTxO struct {
	Input  transactioninput.Input
	Output transactionoutput.Output
}

func New(in transactioninput.Input, out transactionoutput.Output) UTxO {
	return UTxO{Input: in, Output: out}
}

// Value returns the value locked in this UTxO's output.
func (u UTxO) Value() value.Value { return u.Output.Value }
