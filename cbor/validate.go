package cbor

import "fmt"

// ValidateArrayOfNElements reads an array header and requires its
// declared length to equal exactly n. Indefinite-length arrays fail.
func ValidateArrayOfNElements(name string, r *Reader, n int) error {
	length, err := r.ReadStartArray()
	if err != nil {
		return r.fail(newErr(KindInvalidCborArraySize, "%s: %v", name, err))
	}
	if length != int64(n) {
		return r.fail(newErr(KindInvalidCborArraySize, "%s: expected array of %d elements, got %d", name, n, length))
	}
	return nil
}

// ValidateEndArray closes the current array frame, attributing any
// failure to name for diagnostics.
func ValidateEndArray(name string, r *Reader) error {
	if err := r.ReadEndArray(); err != nil {
		return r.fail(newErr(KindInvalidCborArraySize, "%s: %v", name, err))
	}
	return nil
}

// ValidateMapOfNElements reads a map header and requires its declared
// pair count to equal exactly n.
func ValidateMapOfNElements(name string, r *Reader, n int) error {
	length, err := r.ReadStartMap()
	if err != nil {
		return r.fail(newErr(KindInvalidCborMapSize, "%s: %v", name, err))
	}
	if length != int64(n) {
		return r.fail(newErr(KindInvalidCborMapSize, "%s: expected map of %d entries, got %d", name, n, length))
	}
	return nil
}

// ValidateEndMap closes the current map frame, attributing any failure
// to name for diagnostics.
func ValidateEndMap(name string, r *Reader) error {
	if err := r.ReadEndMap(); err != nil {
		return r.fail(newErr(KindInvalidCborMapSize, "%s: %v", name, err))
	}
	return nil
}

// ValidateEnumValue reads a uint and fails unless it equals expected.
// toString renders the expected/actual values for the diagnostic message.
func ValidateEnumValue(name, field string, r *Reader, expected uint64, toString func(uint64) string) (uint64, error) {
	v, err := r.ReadUint()
	if err != nil {
		return 0, r.fail(newErr(KindInvalidCborValue, "%s.%s: %v", name, field, err))
	}
	if v != expected {
		var got, want string
		if toString != nil {
			got, want = toString(v), toString(expected)
		} else {
			got, want = fmt.Sprint(v), fmt.Sprint(expected)
		}
		return 0, r.fail(newErr(KindInvalidCborValue, "%s.%s: expected enum value %s, got %s", name, field, want, got))
	}
	return v, nil
}

// ValidateUintInRange reads a uint and requires min <= v <= max.
func ValidateUintInRange(name, field string, r *Reader, minV, maxV uint64) (uint64, error) {
	v, err := r.ReadUint()
	if err != nil {
		return 0, r.fail(newErr(KindInvalidCborValue, "%s.%s: %v", name, field, err))
	}
	if v < minV || v > maxV {
		return 0, r.fail(newErr(KindInvalidCborValue, "%s.%s: value %d out of range [%d,%d]", name, field, v, minV, maxV))
	}
	return v, nil
}
