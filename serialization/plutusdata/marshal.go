package plutusdata

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/cardano-go/txforge/cbor/bigint"
)

// Marshaler lets a type take over its own Plutus Data encoding instead
// of the reflective struct-tag walk below.
type Marshaler interface {
	ToPlutusData() (PlutusData, error)
}

// Unmarshaler lets a type take over its own Plutus Data decoding.
type Unmarshaler interface {
	FromPlutusData(p PlutusData) error
}

// Marshal encodes a Go struct to a PlutusData tree using struct tags:
// an anonymous `_` field carries `plutusType:"Map"` to pick a Plutus
// Map instead of the default Constr/List, and `plutusConstr:"N"` to
// wrap the result in constructor alternative N. Each exported field's
// `plutusType` tag (Int, Bytes, StringBytes, HexString, Bool, BigInt,
// IndefList, DefList, Map, Custom) picks its conversion; an untagged
// struct field recurses.
func Marshal(v any) (PlutusData, error) {
	return marshalValue(reflect.ValueOf(v))
}

func marshalValue(val reflect.Value) (PlutusData, error) {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return PlutusData{}, errors.New("nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return PlutusData{}, fmt.Errorf("Marshal requires a struct, got %s", val.Kind())
	}

	if val.CanAddr() {
		if m, ok := val.Addr().Interface().(Marshaler); ok {
			return m.ToPlutusData()
		}
	}
	if m, ok := val.Interface().(Marshaler); ok {
		return m.ToPlutusData()
	}

	typ := val.Type()
	containerType, constrTag, hasConstr, err := readContainerTag(typ)
	if err != nil {
		return PlutusData{}, err
	}

	if containerType == "Map" {
		return marshalMap(val, typ, constrTag, hasConstr)
	}
	return marshalList(val, typ, constrTag, hasConstr)
}

func readContainerTag(typ reflect.Type) (containerType string, constrTag uint64, hasConstr bool, err error) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Name != "_" {
			continue
		}
		containerType = field.Tag.Get("plutusType")
		if s := field.Tag.Get("plutusConstr"); s != "" {
			c, perr := strconv.ParseUint(s, 10, 64)
			if perr != nil {
				return "", 0, false, fmt.Errorf("invalid plutusConstr tag %q: %w", s, perr)
			}
			constrTag, hasConstr = c, true
		}
		break
	}
	return containerType, constrTag, hasConstr, nil
}

func marshalList(val reflect.Value, typ reflect.Type, constrTag uint64, hasConstr bool) (PlutusData, error) {
	var fields []PlutusData
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Name == "_" || !field.IsExported() {
			continue
		}
		pd, err := marshalField(val.Field(i), field)
		if err != nil {
			return PlutusData{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		fields = append(fields, pd)
	}
	if hasConstr {
		return NewConstr(constrTag, fields...), nil
	}
	return NewList(fields...), nil
}

func marshalMap(val reflect.Value, typ reflect.Type, constrTag uint64, hasConstr bool) (PlutusData, error) {
	var entries []Entry
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Name == "_" || !field.IsExported() {
			continue
		}
		keyName := field.Tag.Get("plutusKey")
		if keyName == "" {
			keyName = field.Name
		}
		v, err := marshalField(val.Field(i), field)
		if err != nil {
			return PlutusData{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		entries = append(entries, Entry{Key: NewBytes([]byte(keyName)), Value: v})
	}
	m := NewMap(entries...)
	if hasConstr {
		return NewConstr(constrTag, m), nil
	}
	return m, nil
}

func marshalField(fieldVal reflect.Value, field reflect.StructField) (PlutusData, error) {
	plutusType := field.Tag.Get("plutusType")

	if plutusType == "BigInt" {
		return marshalBigInt(fieldVal)
	}

	for fieldVal.Kind() == reflect.Ptr {
		if fieldVal.IsNil() {
			return PlutusData{}, fmt.Errorf("nil pointer for field %s", field.Name)
		}
		fieldVal = fieldVal.Elem()
	}

	if fieldVal.CanAddr() {
		if m, ok := fieldVal.Addr().Interface().(Marshaler); ok {
			return m.ToPlutusData()
		}
	}
	if m, ok := fieldVal.Interface().(Marshaler); ok {
		return m.ToPlutusData()
	}

	switch plutusType {
	case "Int":
		return marshalInt(fieldVal)
	case "Bytes":
		return marshalBytes(fieldVal)
	case "StringBytes":
		return NewBytes([]byte(fieldVal.String())), requireKind(fieldVal, reflect.String, "StringBytes")
	case "HexString":
		return marshalHexString(fieldVal)
	case "Bool", "IndefBool":
		return marshalBool(fieldVal)
	case "IndefList", "DefList":
		return marshalSliceOrNested(fieldVal)
	case "Map":
		return marshalSliceAsMap(fieldVal)
	case "Custom":
		return PlutusData{}, fmt.Errorf("field %s tagged Custom but doesn't implement Marshaler", field.Name)
	default:
		if fieldVal.Kind() == reflect.Struct {
			return marshalValue(fieldVal)
		}
		return PlutusData{}, fmt.Errorf("unsupported field type %s for field %s", fieldVal.Kind(), field.Name)
	}
}

func requireKind(val reflect.Value, want reflect.Kind, tag string) error {
	if val.Kind() != want {
		return fmt.Errorf("%s tag requires %s, got %s", tag, want, val.Kind())
	}
	return nil
}

func marshalInt(val reflect.Value) (PlutusData, error) {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewIntegerFromInt64(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewInteger(bigint.FromUint64(val.Uint())), nil
	default:
		return PlutusData{}, fmt.Errorf("Int tag requires integer type, got %s", val.Kind())
	}
}

func marshalBigInt(val reflect.Value) (PlutusData, error) {
	switch v := val.Interface().(type) {
	case *big.Int:
		if v == nil {
			return NewIntegerFromInt64(0), nil
		}
		return NewInteger(bigint.FromBigInt(v)), nil
	case big.Int:
		return NewInteger(bigint.FromBigInt(&v)), nil
	default:
		return PlutusData{}, fmt.Errorf("BigInt tag requires *big.Int or big.Int, got %T", val.Interface())
	}
}

func marshalBytes(val reflect.Value) (PlutusData, error) {
	if val.Kind() != reflect.Slice || val.Type().Elem().Kind() != reflect.Uint8 {
		return PlutusData{}, fmt.Errorf("Bytes tag requires []byte, got %s", val.Type())
	}
	return NewBytes(val.Bytes()), nil
}

func marshalHexString(val reflect.Value) (PlutusData, error) {
	if val.Kind() != reflect.String {
		return PlutusData{}, fmt.Errorf("HexString tag requires string, got %s", val.Kind())
	}
	b, err := hex.DecodeString(val.String())
	if err != nil {
		return PlutusData{}, fmt.Errorf("HexString: invalid hex: %w", err)
	}
	return NewBytes(b), nil
}

func marshalBool(val reflect.Value) (PlutusData, error) {
	if val.Kind() != reflect.Bool {
		return PlutusData{}, fmt.Errorf("Bool tag requires bool, got %s", val.Kind())
	}
	if val.Bool() {
		return NewConstr(1), nil
	}
	return NewConstr(0), nil
}

func marshalSliceOrNested(val reflect.Value) (PlutusData, error) {
	if val.Kind() != reflect.Slice {
		return marshalValue(val)
	}
	items := make([]PlutusData, val.Len())
	for i := range items {
		pd, err := marshalSliceElement(val.Index(i))
		if err != nil {
			return PlutusData{}, fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = pd
	}
	return NewList(items...), nil
}

func marshalSliceElement(elem reflect.Value) (PlutusData, error) {
	for elem.Kind() == reflect.Ptr {
		if elem.IsNil() {
			return PlutusData{}, errors.New("nil pointer in slice")
		}
		elem = elem.Elem()
	}
	switch elem.Kind() {
	case reflect.Struct:
		return marshalValue(elem)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewIntegerFromInt64(elem.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewInteger(bigint.FromUint64(elem.Uint())), nil
	case reflect.String:
		return NewBytes([]byte(elem.String())), nil
	case reflect.Slice:
		if elem.Type().Elem().Kind() == reflect.Uint8 {
			return NewBytes(elem.Bytes()), nil
		}
		return PlutusData{}, fmt.Errorf("unsupported slice element type: %s", elem.Type())
	default:
		return PlutusData{}, fmt.Errorf("unsupported slice element kind: %s", elem.Kind())
	}
}

// marshalSliceAsMap marshals a slice of structs into a Plutus Map,
// using each element's first exported field as the key and the rest
// (or the single remaining field) as the value.
func marshalSliceAsMap(val reflect.Value) (PlutusData, error) {
	if val.Kind() != reflect.Slice {
		return marshalValue(val)
	}
	var entries []Entry
	for i := 0; i < val.Len(); i++ {
		elem := val.Index(i)
		for elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				return PlutusData{}, fmt.Errorf("nil pointer at element %d", i)
			}
			elem = elem.Elem()
		}
		key, keyIdx, err := extractMapKey(elem)
		if err != nil {
			return PlutusData{}, fmt.Errorf("element %d key: %w", i, err)
		}
		v, err := marshalMapValueFields(elem, keyIdx)
		if err != nil {
			return PlutusData{}, fmt.Errorf("element %d: %w", i, err)
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
	return NewMap(entries...), nil
}

func marshalMapValueFields(elem reflect.Value, keyIdx int) (PlutusData, error) {
	typ := elem.Type()
	var fields []PlutusData
	for i := 0; i < typ.NumField(); i++ {
		if i == keyIdx {
			continue
		}
		f := typ.Field(i)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		pd, err := marshalField(elem.Field(i), f)
		if err != nil {
			return PlutusData{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields = append(fields, pd)
	}
	if len(fields) == 1 {
		return fields[0], nil
	}
	return NewList(fields...), nil
}

func extractMapKey(elem reflect.Value) (PlutusData, int, error) {
	if elem.Kind() != reflect.Struct {
		return PlutusData{}, -1, fmt.Errorf("cannot extract map key from non-struct element of kind %s", elem.Kind())
	}
	typ := elem.Type()
	for j := 0; j < typ.NumField(); j++ {
		f := typ.Field(j)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		fv := elem.Field(j)
		if fv.Kind() == reflect.String {
			return NewBytes([]byte(fv.String())), j, nil
		}
		pd, err := marshalField(fv, f)
		if err != nil {
			return PlutusData{}, -1, err
		}
		return pd, j, nil
	}
	return PlutusData{}, -1, errors.New("struct has no exported fields to use as a map key")
}

// Unmarshal decodes a PlutusData tree into a Go struct using the same
// struct tags Marshal reads.
func Unmarshal(p PlutusData, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return errors.New("Unmarshal requires a non-nil pointer")
	}
	return unmarshalValue(p, val.Elem())
}

func unmarshalValue(p PlutusData, val reflect.Value) error {
	if val.CanAddr() {
		if m, ok := val.Addr().Interface().(Unmarshaler); ok {
			return m.FromPlutusData(p)
		}
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a struct, got %s", val.Kind())
	}

	typ := val.Type()
	containerType, expectedConstr, hasExpectedConstr, err := readContainerTag(typ)
	if err != nil {
		return err
	}

	if containerType == "Map" {
		return unmarshalFromMap(p, val, typ, expectedConstr, hasExpectedConstr)
	}
	return unmarshalFromList(p, val, typ, expectedConstr, hasExpectedConstr)
}

func unmarshalFromList(p PlutusData, val reflect.Value, typ reflect.Type, expectedConstr uint64, hasExpectedConstr bool) error {
	var fields []PlutusData
	switch p.Kind() {
	case KindConstr:
		if hasExpectedConstr && p.ConstrTag() != expectedConstr {
			return fmt.Errorf("expected constructor tag %d, got %d", expectedConstr, p.ConstrTag())
		}
		fields = p.Fields()
	case KindList:
		if hasExpectedConstr {
			return fmt.Errorf("expected constructor with tag %d, got a plain list", expectedConstr)
		}
		fields = p.Fields()
	default:
		return fmt.Errorf("expected Constr or List, got kind %d", p.Kind())
	}

	exportedCount := 0
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Name != "_" && f.IsExported() {
			exportedCount++
		}
	}
	if len(fields) < exportedCount {
		return fmt.Errorf("plutus data has %d fields, struct %s expects %d", len(fields), typ.Name(), exportedCount)
	}

	fieldIdx := 0
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Name == "_" || !field.IsExported() {
			continue
		}
		if err := unmarshalField(fields[fieldIdx], val.Field(i), field); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		fieldIdx++
	}
	return nil
}

func unmarshalFromMap(p PlutusData, val reflect.Value, typ reflect.Type, expectedConstr uint64, hasExpectedConstr bool) error {
	mapData := p
	if p.Kind() == KindConstr {
		if len(p.Fields()) != 1 || p.Fields()[0].Kind() != KindMap {
			return fmt.Errorf("expected Constr with 1 field wrapping a Map, got Constr with %d fields", len(p.Fields()))
		}
		if hasExpectedConstr && p.ConstrTag() != expectedConstr {
			return fmt.Errorf("expected constructor tag %d, got %d", expectedConstr, p.ConstrTag())
		}
		mapData = p.Fields()[0]
	} else if p.Kind() != KindMap {
		return fmt.Errorf("expected Map, got kind %d", p.Kind())
	} else if hasExpectedConstr {
		return fmt.Errorf("expected Constr with tag %d wrapping Map, got a bare Map", expectedConstr)
	}

	keyed := make(map[string]PlutusData, len(mapData.Entries()))
	for _, e := range mapData.Entries() {
		if e.Key.Kind() == KindBytes {
			keyed[string(e.Key.Bytes())] = e.Value
		}
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Name == "_" || !field.IsExported() {
			continue
		}
		keyName := field.Tag.Get("plutusKey")
		if keyName == "" {
			keyName = field.Name
		}
		v, ok := keyed[keyName]
		if !ok {
			continue
		}
		if err := unmarshalField(v, val.Field(i), field); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func unmarshalField(p PlutusData, fieldVal reflect.Value, field reflect.StructField) error {
	plutusType := field.Tag.Get("plutusType")

	if plutusType == "BigInt" {
		return unmarshalBigInt(p, fieldVal)
	}

	for fieldVal.Kind() == reflect.Ptr {
		if fieldVal.IsNil() {
			fieldVal.Set(reflect.New(fieldVal.Type().Elem()))
		}
		fieldVal = fieldVal.Elem()
	}

	if fieldVal.CanAddr() {
		if m, ok := fieldVal.Addr().Interface().(Unmarshaler); ok {
			return m.FromPlutusData(p)
		}
	}

	switch plutusType {
	case "Int":
		return unmarshalInt(p, fieldVal)
	case "Bytes":
		return unmarshalBytes(p, fieldVal)
	case "StringBytes":
		return unmarshalStringBytes(p, fieldVal)
	case "HexString":
		return unmarshalHexString(p, fieldVal)
	case "Bool", "IndefBool":
		return unmarshalBool(p, fieldVal)
	case "IndefList", "DefList":
		return unmarshalSliceOrNested(p, fieldVal)
	case "Map":
		return unmarshalSliceAsMap(p, fieldVal)
	case "Custom":
		return fmt.Errorf("field %s tagged Custom but doesn't implement Unmarshaler", field.Name)
	default:
		if fieldVal.Kind() == reflect.Struct {
			return unmarshalValue(p, fieldVal)
		}
		return fmt.Errorf("unsupported field type %s for field %s", fieldVal.Kind(), field.Name)
	}
}

func unmarshalInt(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindInteger {
		return fmt.Errorf("expected Integer, got kind %d", p.Kind())
	}
	big := p.Integer().Big()
	switch fieldVal.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		if !big.IsInt64() {
			return fmt.Errorf("integer value %s does not fit in int64", big.String())
		}
		v := big.Int64()
		if err := checkSignedRange(fieldVal.Kind(), v); err != nil {
			return err
		}
		fieldVal.SetInt(v)
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		if big.Sign() < 0 || !big.IsUint64() {
			return fmt.Errorf("integer value %s does not fit in uint64", big.String())
		}
		v := big.Uint64()
		if err := checkUnsignedRange(fieldVal.Kind(), v); err != nil {
			return err
		}
		fieldVal.SetUint(v)
	default:
		return fmt.Errorf("Int tag requires integer type, got %s", fieldVal.Kind())
	}
	return nil
}

func checkSignedRange(kind reflect.Kind, v int64) error {
	switch kind {
	case reflect.Int32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("integer value %d does not fit in int32", v)
		}
	case reflect.Int16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return fmt.Errorf("integer value %d does not fit in int16", v)
		}
	case reflect.Int8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return fmt.Errorf("integer value %d does not fit in int8", v)
		}
	}
	return nil
}

func checkUnsignedRange(kind reflect.Kind, v uint64) error {
	switch kind {
	case reflect.Uint32:
		if v > math.MaxUint32 {
			return fmt.Errorf("integer value %d does not fit in uint32", v)
		}
	case reflect.Uint16:
		if v > math.MaxUint16 {
			return fmt.Errorf("integer value %d does not fit in uint16", v)
		}
	case reflect.Uint8:
		if v > math.MaxUint8 {
			return fmt.Errorf("integer value %d does not fit in uint8", v)
		}
	}
	return nil
}

func unmarshalBigInt(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindInteger {
		return fmt.Errorf("expected Integer, got kind %d", p.Kind())
	}
	switch fieldVal.Type() {
	case reflect.TypeFor[*big.Int]():
		fieldVal.Set(reflect.ValueOf(new(big.Int).Set(p.Integer().Big())))
	case reflect.TypeFor[big.Int]():
		fieldVal.Set(reflect.ValueOf(*new(big.Int).Set(p.Integer().Big())))
	default:
		return fmt.Errorf("BigInt tag requires *big.Int or big.Int, got %s", fieldVal.Type())
	}
	return nil
}

func unmarshalBytes(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindBytes {
		return fmt.Errorf("expected Bytes, got kind %d", p.Kind())
	}
	if fieldVal.Kind() != reflect.Slice || fieldVal.Type().Elem().Kind() != reflect.Uint8 {
		return fmt.Errorf("Bytes tag requires []byte, got %s", fieldVal.Type())
	}
	fieldVal.SetBytes(append([]byte(nil), p.Bytes()...))
	return nil
}

func unmarshalStringBytes(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindBytes {
		return fmt.Errorf("expected Bytes, got kind %d", p.Kind())
	}
	if fieldVal.Kind() != reflect.String {
		return fmt.Errorf("StringBytes tag requires string, got %s", fieldVal.Kind())
	}
	fieldVal.SetString(string(p.Bytes()))
	return nil
}

func unmarshalHexString(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindBytes {
		return fmt.Errorf("expected Bytes, got kind %d", p.Kind())
	}
	if fieldVal.Kind() != reflect.String {
		return fmt.Errorf("HexString tag requires string, got %s", fieldVal.Kind())
	}
	fieldVal.SetString(hex.EncodeToString(p.Bytes()))
	return nil
}

func unmarshalBool(p PlutusData, fieldVal reflect.Value) error {
	if p.Kind() != KindConstr {
		return fmt.Errorf("expected Constr for Bool, got kind %d", p.Kind())
	}
	if p.ConstrTag() > 1 {
		return fmt.Errorf("expected constructor tag 0 or 1 for Bool, got %d", p.ConstrTag())
	}
	if fieldVal.Kind() != reflect.Bool {
		return fmt.Errorf("Bool tag requires bool, got %s", fieldVal.Kind())
	}
	fieldVal.SetBool(p.ConstrTag() == 1)
	return nil
}

func unmarshalSliceOrNested(p PlutusData, fieldVal reflect.Value) error {
	if fieldVal.Kind() != reflect.Slice {
		return unmarshalValue(p, fieldVal)
	}
	if p.Kind() != KindList && p.Kind() != KindConstr {
		return fmt.Errorf("expected List or Constr for slice, got kind %d", p.Kind())
	}
	items := p.Fields()
	elemType := fieldVal.Type().Elem()
	result := reflect.MakeSlice(fieldVal.Type(), len(items), len(items))
	for i, item := range items {
		if elemType.Kind() == reflect.Ptr {
			ptr := reflect.New(elemType.Elem())
			if err := unmarshalSliceElement(item, ptr.Elem()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			result.Index(i).Set(ptr)
		} else {
			elem := reflect.New(elemType).Elem()
			if err := unmarshalSliceElement(item, elem); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			result.Index(i).Set(elem)
		}
	}
	fieldVal.Set(result)
	return nil
}

func unmarshalSliceElement(p PlutusData, elem reflect.Value) error {
	switch elem.Kind() {
	case reflect.Struct:
		return unmarshalValue(p, elem)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unmarshalInt(p, elem)
	case reflect.String:
		if p.Kind() != KindBytes {
			return fmt.Errorf("expected Bytes, got kind %d", p.Kind())
		}
		elem.SetString(string(p.Bytes()))
		return nil
	case reflect.Slice:
		if elem.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("unsupported nested slice type: %s", elem.Type())
		}
		if p.Kind() != KindBytes {
			return fmt.Errorf("expected Bytes, got kind %d", p.Kind())
		}
		elem.SetBytes(append([]byte(nil), p.Bytes()...))
		return nil
	default:
		return fmt.Errorf("unsupported slice element kind: %s", elem.Kind())
	}
}

func unmarshalSliceAsMap(p PlutusData, fieldVal reflect.Value) error {
	if fieldVal.Kind() != reflect.Slice {
		return unmarshalValue(p, fieldVal)
	}
	if p.Kind() != KindMap {
		return fmt.Errorf("expected Map for slice, got kind %d", p.Kind())
	}
	entries := p.Entries()
	elemType := fieldVal.Type().Elem()
	result := reflect.MakeSlice(fieldVal.Type(), len(entries), len(entries))
	for i, e := range entries {
		var elem reflect.Value
		if elemType.Kind() == reflect.Ptr {
			elem = reflect.New(elemType.Elem()).Elem()
		} else {
			elem = reflect.New(elemType).Elem()
		}
		if err := unmarshalMapEntry(e, elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if elemType.Kind() == reflect.Ptr {
			result.Index(i).Set(elem.Addr())
		} else {
			result.Index(i).Set(elem)
		}
	}
	fieldVal.Set(result)
	return nil
}

func unmarshalMapEntry(e Entry, elem reflect.Value) error {
	if elem.Kind() != reflect.Struct {
		return unmarshalValue(e.Value, elem)
	}
	typ := elem.Type()

	keyIdx := -1
	for j := 0; j < typ.NumField(); j++ {
		f := typ.Field(j)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		keyIdx = j
		break
	}
	if keyIdx < 0 {
		return unmarshalValue(e.Value, elem)
	}

	keyField := typ.Field(keyIdx)
	if err := unmarshalField(e.Key, elem.Field(keyIdx), keyField); err != nil {
		return fmt.Errorf("key field %s: %w", keyField.Name, err)
	}

	var valueFieldIdxs []int
	for j := 0; j < typ.NumField(); j++ {
		if j == keyIdx {
			continue
		}
		f := typ.Field(j)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		valueFieldIdxs = append(valueFieldIdxs, j)
	}

	if len(valueFieldIdxs) == 1 {
		f := typ.Field(valueFieldIdxs[0])
		return unmarshalField(e.Value, elem.Field(valueFieldIdxs[0]), f)
	}

	if e.Value.Kind() != KindList && e.Value.Kind() != KindConstr {
		return fmt.Errorf("expected List for multi-field map value, got kind %d", e.Value.Kind())
	}
	items := e.Value.Fields()
	if len(items) < len(valueFieldIdxs) {
		return fmt.Errorf("map value has %d items but struct expects %d non-key fields", len(items), len(valueFieldIdxs))
	}
	for i, fieldIdx := range valueFieldIdxs {
		f := typ.Field(fieldIdx)
		if err := unmarshalField(items[i], elem.Field(fieldIdx), f); err != nil {
			return fmt.Errorf("value field %s: %w", f.Name, err)
		}
	}
	return nil
}
