package services

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // SHA-1 ids are kept for existing ledgers
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/logger"
)

// sha1Namespace is the UUIDv5 namespace wrapping SHA-1 ids: the UUID whose
// 128-bit integer value is 1984.
var sha1Namespace = uuid.UUID{14: 0x07, 15: 0xC0}

// sha1Warned is set the first time a SHA-1 id is produced in this process.
var sha1Warned atomic.Bool

func warnSHA1Once() {
	if sha1Warned.CompareAndSwap(false, true) {
		logger.Warn("Using SHA-1 for document hashing. SHA-1 is not collision-resistant; " +
			"a motivated attacker can craft two documents with the same id. " +
			"Switch to sha256, sha512 or blake2b via the hash setting or a custom key function.")
	}
}

// HashDocument returns a copy of doc whose ID is derived from its content
// and metadata. cfg.KeyFunc wins over cfg.HashAlgorithm when set.
func HashDocument(doc domain.Document, cfg domain.IndexConfig) (domain.Document, error) {
	if cfg.KeyFunc != nil {
		return doc.WithID(cfg.KeyFunc(doc)), nil
	}

	algorithm := cfg.HashAlgorithm
	if algorithm == "" {
		algorithm = domain.HashSHA1
	}

	meta, err := canonicalJSON(doc.Metadata)
	if err != nil {
		return domain.Document{}, &domain.HashingError{ContentPrefix: doc.ContentPrefix(), Err: err}
	}

	contentHash, err := digest(algorithm, []byte(doc.Content))
	if err != nil {
		return domain.Document{}, err
	}
	metaHash, err := digest(algorithm, meta)
	if err != nil {
		return domain.Document{}, err
	}
	id, err := digest(algorithm, []byte(contentHash+metaHash))
	if err != nil {
		return domain.Document{}, err
	}
	return doc.WithID(id), nil
}

// digest returns the hex digest of data. SHA-1 digests are wrapped in a
// UUIDv5 so ids keep the shape older ledgers expect.
func digest(algorithm domain.HashAlgorithm, data []byte) (string, error) {
	var h hash.Hash
	switch algorithm {
	case domain.HashSHA1:
		warnSHA1Once()
		sum := sha1.Sum(data) //nolint:gosec // see import
		return uuid.NewSHA1(sha1Namespace, []byte(hex.EncodeToString(sum[:]))).String(), nil
	case domain.HashSHA256:
		h = sha256.New()
	case domain.HashSHA512:
		h = sha512.New()
	case domain.HashBLAKE2b:
		h, _ = blake2b.New512(nil) // only fails for oversized keys
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", domain.ErrInvalidConfig, algorithm)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON serialises v with sorted object keys, ", " between items and
// ": " between keys and values. The byte layout is part of the id format.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		writeString(buf, x)
	case json.Number:
		return writeNumber(buf, x)
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return writeFloat(buf, float64(x), 32)
	case float64:
		return writeFloat(buf, x, 64)
	case map[string]any:
		return writeObject(buf, x)
	case []any:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return writeReflected(buf, v)
	}
	return nil
}

func writeObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(buf, k)
		buf.WriteString(": ")
		if err := writeCanonical(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

var (
	numberType        = reflect.TypeFor[json.Number]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// writeReflected handles typed maps, slices and structs by walking them with
// reflect, so float fields keep their float form. Values with their own
// JSON or text encoding go through encoding/json instead.
func writeReflected(buf *bytes.Buffer, v any) error {
	return writeValue(buf, reflect.ValueOf(v))
}

func writeValue(buf *bytes.Buffer, rv reflect.Value) error {
	if !rv.IsValid() {
		buf.WriteString("null")
		return nil
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		buf.WriteString("null")
		return nil
	}

	t := rv.Type()
	if t == numberType {
		return writeNumber(buf, json.Number(rv.String()))
	}
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return writeViaJSON(buf, rv)
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return writeValue(buf, rv.Elem())
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		return writeFloat(buf, rv.Float(), 32)
	case reflect.Float64:
		return writeFloat(buf, rv.Float(), 64)
	case reflect.String:
		writeString(buf, rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return writeViaJSON(buf, rv)
		}
		return writeArray(buf, rv)
	case reflect.Array:
		return writeArray(buf, rv)
	case reflect.Map:
		return writeMap(buf, rv)
	case reflect.Struct:
		return writeStruct(buf, rv)
	default:
		return writeViaJSON(buf, rv)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, rv reflect.Value) error {
	buf.WriteByte('[')
	for i := range rv.Len() {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writeValue(buf, rv.Index(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeMap(buf *bytes.Buffer, rv reflect.Value) error {
	if rv.IsNil() {
		buf.WriteString("null")
		return nil
	}

	fields := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		switch k.Kind() {
		case reflect.String:
			fields[k.String()] = iter.Value()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fields[strconv.FormatInt(k.Int(), 10)] = iter.Value()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			fields[strconv.FormatUint(k.Uint(), 10)] = iter.Value()
		default:
			return writeViaJSON(buf, rv)
		}
	}
	return writeFields(buf, fields)
}

// writeStruct follows encoding/json field naming: json tags, "-", omitempty,
// omitzero and promoted fields of embedded structs.
func writeStruct(buf *bytes.Buffer, rv reflect.Value) error {
	fields := make(map[string]reflect.Value)
	if ok := collectFields(rv, fields); !ok {
		return writeViaJSON(buf, rv)
	}
	return writeFields(buf, fields)
}

// collectFields adds the encoded fields of rv to out. Fields already in out
// win over promoted ones. It returns false for the ",string" option, which
// only encoding/json reproduces.
func collectFields(rv reflect.Value, out map[string]reflect.Value) bool {
	t := rv.Type()
	var embedded []reflect.Value
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			inner := fv
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				embedded = append(embedded, inner)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if hasOption(opts, "string") {
			return false
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if hasOption(opts, "omitzero") && fv.IsZero() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = fv
	}

	for _, inner := range embedded {
		promoted := make(map[string]reflect.Value)
		if !collectFields(inner, promoted) {
			return false
		}
		for name, fv := range promoted {
			if _, taken := out[name]; !taken {
				out[name] = fv
			}
		}
	}
	return true
}

func hasOption(opts, name string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == name {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

func writeFields(buf *bytes.Buffer, fields map[string]reflect.Value) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(buf, k)
		buf.WriteString(": ")
		if err := writeValue(buf, fields[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeViaJSON round-trips rv through encoding/json into the generic shapes
// handled by writeCanonical.
func writeViaJSON(buf *bytes.Buffer, rv reflect.Value) error {
	if !rv.CanInterface() {
		return fmt.Errorf("json: unsupported unexported value of type %s", rv.Type())
	}
	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	return writeCanonical(buf, generic)
}

// writeNumber writes integers verbatim and anything with a fraction or
// exponent as a float, so it matches the same value held as a float64.
func writeNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if s == "" {
		s = "0"
	}
	if !strings.ContainsAny(s, ".eE") {
		buf.WriteString(s)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("json: invalid number %q: %w", s, err)
	}
	return writeFloat(buf, f, 64)
}

const hexDigits = "0123456789abcdef"

// writeString quotes s without HTML or non-ASCII escaping. Invalid UTF-8 is
// replaced with U+FFFD.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xF])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// writeFloat formats the shortest representation that round-trips, always
// keeping a fractional part or exponent so floats never read as integers.
func writeFloat(buf *bytes.Buffer, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("json: unsupported value: " + strconv.FormatFloat(f, 'g', -1, bits))
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-5 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, bits)
		mantissa, exp, _ := strings.Cut(s, "e")
		n, _ := strconv.Atoi(exp)
		buf.WriteString(mantissa)
		buf.WriteString("e")
		buf.WriteString(strconv.Itoa(n))
		return nil
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	buf.WriteString(s)
	if !strings.Contains(s, ".") {
		buf.WriteString(".0")
	}
	return nil
}
