// Package cbor implements a streaming, state-machine-driven CBOR (RFC 8949)
// reader and writer tailored to Cardano's on-chain encoding conventions:
// canonical integer widths, definite-length containers by default, and
// byte-exact preservation of received encodings via ReadEncodedValue.
package cbor

import "fmt"

// Kind is a closed enumeration of CBOR-layer failure reasons.
type Kind string

const (
	KindUnexpectedCborType Kind = "UnexpectedCborType"
	KindInvalidCborValue   Kind = "InvalidCborValue"
	KindInvalidCborArraySize Kind = "InvalidCborArraySize"
	KindInvalidCborMapSize Kind = "InvalidCborMapSize"
	KindDuplicatedMapKey   Kind = "DuplicatedCborMapKey"
	KindInvalidMapKey      Kind = "InvalidCborMapKey"
	KindDecoding           Kind = "Decoding"
	KindEncoding           Kind = "Encoding"
	KindEndOfStream        Kind = "EndOfStream"
	KindInsufficientBuffer Kind = "InsufficientBufferSize"
	KindIndexOutOfBounds   Kind = "IndexOutOfBounds"
	KindInvalidArgument    Kind = "InvalidArgument"
	KindIntegerOverflow    Kind = "IntegerOverflow"
	KindConversionFailed   Kind = "ConversionFailed"
	KindIllegalState       Kind = "IllegalState"

	// Domain error kinds (spec.md §7's closed Domain enumeration),
	// raised by the serialization/* and txbuilding/* packages rather
	// than the cbor codec itself.
	KindInvalidAddressType              Kind = "InvalidAddressType"
	KindInvalidAddressFormat             Kind = "InvalidAddressFormat"
	KindInvalidCredentialType            Kind = "InvalidCredentialType"
	KindInvalidScriptLanguage            Kind = "InvalidScriptLanguage"
	KindInvalidNativeScriptType          Kind = "InvalidNativeScriptType"
	KindInvalidPlutusDataConversion      Kind = "InvalidPlutusDataConversion"
	KindInvalidDatumType                 Kind = "InvalidDatumType"
	KindInvalidCertificateType           Kind = "InvalidCertificateType"
	KindInvalidPlutusCostModel           Kind = "InvalidPlutusCostModel"
	KindInvalidProcedureProposalType     Kind = "InvalidProcedureProposalType"
	KindInvalidMetadatumConversion       Kind = "InvalidMetadatumConversion"
	KindInvalidMetadatumTextStringSize   Kind = "InvalidMetadatumTextStringSize"
	KindInvalidMetadatumBoundedBytesSize Kind = "InvalidMetadatumBoundedBytesSize"

	// Balancer error kinds (spec.md §7).
	KindBalanceInsufficient        Kind = "BalanceInsufficient"
	KindUtxoNotFragmentedEnough    Kind = "UtxoNotFragmentedEnough"
	KindUtxoFullyDepleted          Kind = "UtxoFullyDepleted"
	KindMaximumInputCountExceeded  Kind = "MaximumInputCountExceeded"
	KindScriptEvaluationFailure    Kind = "ScriptEvaluationFailure"
	KindGeneric                    Kind = "Generic"
)

// Error is the concrete error type returned by every public operation in
// this package. It carries the closed Kind plus free-form context, capped
// at 1024 bytes, mirroring the per-instance last-error slot described by
// the source library this package was modeled on.
type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string {
	if e.Context == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

// newErr builds an Error, truncating Context to 1024 bytes.
func newErr(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	return &Error{Kind: kind, Context: msg}
}
