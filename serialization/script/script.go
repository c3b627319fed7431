// Package script implements Cardano's script tagged union — Native
// scripts and PlutusV1/V2/V3 compiled code — and the language-tag-prefixed
// BLAKE2b-224 script hash used to address them on-chain.
package script

import (
	"golang.org/x/crypto/blake2b"

	"github.com/cardano-go/txforge/cbor"
)

// Language discriminates the script tagged union.
type Language int

const (
	LanguageNative Language = iota
	LanguagePlutusV1
	LanguagePlutusV2
	LanguagePlutusV3
)

// tagByte is the single prefix byte mixed into the script hash, per
// language: 0 native, 1 v1, 2 v2, 3 v3.
func (l Language) tagByte() byte { return byte(l) }

// Script is a tagged union over a native script or compiled Plutus code.
type Script struct {
	Language Language
	Native   NativeScript // valid when Language == LanguageNative
	Compiled []byte       // valid otherwise: raw compiled bytecode
}

// NewNative wraps a native script.
func NewNative(n NativeScript) Script {
	return Script{Language: LanguageNative, Native: n}
}

// NewPlutusV1/V2/V3 wrap compiled Plutus bytecode.
func NewPlutusV1(code []byte) Script { return Script{Language: LanguagePlutusV1, Compiled: code} }
func NewPlutusV2(code []byte) Script { return Script{Language: LanguagePlutusV2, Compiled: code} }
func NewPlutusV3(code []byte) Script { return Script{Language: LanguagePlutusV3, Compiled: code} }

// Hash computes the script hash: BLAKE2b-224 over the single-byte
// language tag concatenated with the compiled code (Plutus) or the CBOR
// of the native script (Native).
func (s Script) Hash() ([28]byte, error) {
	var body []byte
	switch s.Language {
	case LanguageNative:
		w := cbor.NewWriter()
		if err := s.Native.Encode(w); err != nil {
			return [28]byte{}, err
		}
		body = w.Bytes()
	default:
		body = s.Compiled
	}
	input := make([]byte, 0, 1+len(body))
	input = append(input, s.Language.tagByte())
	input = append(input, body...)

	h, err := blake2b.New(28, nil)
	if err != nil {
		return [28]byte{}, err
	}
	if _, err := h.Write(input); err != nil {
		return [28]byte{}, err
	}
	var out [28]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// NativeKind discriminates the NativeScript recursive sum type.
type NativeKind int

const (
	NativeSig NativeKind = iota
	NativeAll
	NativeAny
	NativeNOfK
	NativeInvalidBefore
	NativeInvalidHereafter
)

// NativeScript is the recursive sum type
// Sig | All | Any | NOfK | InvalidBefore | InvalidHereafter.
type NativeScript struct {
	Kind     NativeKind
	KeyHash  [28]byte       // Sig
	Scripts  []NativeScript // All, Any, NOfK
	Required uint64         // NOfK
	Slot     uint64         // InvalidBefore, InvalidHereafter
}

func Sig(keyHash [28]byte) NativeScript { return NativeScript{Kind: NativeSig, KeyHash: keyHash} }
func All(scripts ...NativeScript) NativeScript {
	return NativeScript{Kind: NativeAll, Scripts: scripts}
}
func Any(scripts ...NativeScript) NativeScript {
	return NativeScript{Kind: NativeAny, Scripts: scripts}
}
func NOfK(n uint64, scripts ...NativeScript) NativeScript {
	return NativeScript{Kind: NativeNOfK, Required: n, Scripts: scripts}
}
func InvalidBefore(slot uint64) NativeScript {
	return NativeScript{Kind: NativeInvalidBefore, Slot: slot}
}
func InvalidHereafter(slot uint64) NativeScript {
	return NativeScript{Kind: NativeInvalidHereafter, Slot: slot}
}

// Encode writes the native script as the standard [tag, ...] CBOR array
// Cardano uses for native scripts: tag 0 sig, 1 all, 2 any, 3 n-of-k,
// 4 invalid-before, 5 invalid-hereafter.
func (n NativeScript) Encode(w *cbor.Writer) error {
	switch n.Kind {
	case NativeSig:
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(0)
		w.WriteBytestring(n.KeyHash[:])
		return w.WriteEndArray()
	case NativeAll, NativeAny:
		tag := uint64(1)
		if n.Kind == NativeAny {
			tag = 2
		}
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(tag)
		if err := encodeScriptList(w, n.Scripts); err != nil {
			return err
		}
		return w.WriteEndArray()
	case NativeNOfK:
		if err := w.WriteStartArray(3); err != nil {
			return err
		}
		w.WriteUint(3)
		w.WriteUint(n.Required)
		if err := encodeScriptList(w, n.Scripts); err != nil {
			return err
		}
		return w.WriteEndArray()
	case NativeInvalidBefore, NativeInvalidHereafter:
		tag := uint64(4)
		if n.Kind == NativeInvalidHereafter {
			tag = 5
		}
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(tag)
		w.WriteUint(n.Slot)
		return w.WriteEndArray()
	default:
		return &cbor.Error{Kind: cbor.KindEncoding, Context: "invalid native script kind"}
	}
}

func encodeScriptList(w *cbor.Writer, scripts []NativeScript) error {
	if err := w.WriteStartArray(int64(len(scripts))); err != nil {
		return err
	}
	for _, s := range scripts {
		if err := s.Encode(w); err != nil {
			return err
		}
	}
	return w.WriteEndArray()
}

// DecodeNativeScript reads a native script in the [tag, ...] form.
func DecodeNativeScript(r *cbor.Reader) (NativeScript, error) {
	if _, err := r.ReadStartArray(); err != nil {
		return NativeScript{}, err
	}
	tag, err := r.ReadUint()
	if err != nil {
		return NativeScript{}, err
	}
	switch tag {
	case 0:
		kh, err := r.ReadBytestring()
		if err != nil {
			return NativeScript{}, err
		}
		if err := cbor.ValidateEndArray("native_script", r); err != nil {
			return NativeScript{}, err
		}
		var out [28]byte
		copy(out[:], kh)
		return Sig(out), nil
	case 1, 2:
		scripts, err := decodeScriptList(r)
		if err != nil {
			return NativeScript{}, err
		}
		if err := cbor.ValidateEndArray("native_script", r); err != nil {
			return NativeScript{}, err
		}
		if tag == 1 {
			return All(scripts...), nil
		}
		return Any(scripts...), nil
	case 3:
		n, err := r.ReadUint()
		if err != nil {
			return NativeScript{}, err
		}
		scripts, err := decodeScriptList(r)
		if err != nil {
			return NativeScript{}, err
		}
		if err := cbor.ValidateEndArray("native_script", r); err != nil {
			return NativeScript{}, err
		}
		return NOfK(n, scripts...), nil
	case 4, 5:
		slot, err := r.ReadUint()
		if err != nil {
			return NativeScript{}, err
		}
		if err := cbor.ValidateEndArray("native_script", r); err != nil {
			return NativeScript{}, err
		}
		if tag == 4 {
			return InvalidBefore(slot), nil
		}
		return InvalidHereafter(slot), nil
	default:
		return NativeScript{}, &cbor.Error{Kind: cbor.KindInvalidCborValue, Context: "unknown native script type tag"}
	}
}

func decodeScriptList(r *cbor.Reader) ([]NativeScript, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out []NativeScript
	for i := int64(0); n == -1 || i < n; i++ {
		if n == -1 {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		s, err := DecodeNativeScript(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}
