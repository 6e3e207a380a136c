package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// KeySeparator sits between the operation name and the serialized argument.
const KeySeparator = "::"

// None is the argument type of operations that take no argument.
// A None argument derives the bare operation name as its key.
type None = struct{}

// Discriminant is implemented by arguments that cannot be serialized
// (file uploads, readers). The returned value is keyed instead of the argument.
type Discriminant interface {
	Discriminant() any
}

// Keyer derives cache keys from an operation name and its argument.
//
// Contract:
//   - Determinism: structurally equal arguments produce the same key, regardless
//     of map insertion order or struct field declaration order.
//   - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(op string, arg any) (string, error)
}

// DefaultKeyer produces readable keys: op::<canonical JSON>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a key. A nil or None argument yields op unchanged.
func (k *DefaultKeyer) Key(op string, arg any) (string, error) {
	return DeriveKey(op, arg)
}

// HashKeyer produces fixed-size keys for bulky arguments.
// Format: op::<first 16 hex chars of SHA-256(canonical JSON)>
type HashKeyer struct{}

// NewHashKeyer creates a new hashing keyer.
func NewHashKeyer() *HashKeyer {
	return &HashKeyer{}
}

// Key derives a hashed key. A nil or None argument yields op unchanged.
func (k *HashKeyer) Key(op string, arg any) (string, error) {
	arg, ok := keyable(arg)
	if !ok {
		return op, nil
	}
	canonical, err := Canonicalize(arg)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(canonical)
	return op + KeySeparator + hex.EncodeToString(hash[:8]), nil
}

// DeriveKey returns op when arg is absent, otherwise op::<canonical JSON of arg>.
func DeriveKey(op string, arg any) (string, error) {
	arg, ok := keyable(arg)
	if !ok {
		return op, nil
	}
	canonical, err := Canonicalize(arg)
	if err != nil {
		return "", err
	}
	return op + KeySeparator + string(canonical), nil
}

// keyable resolves discriminants and reports whether arg contributes to the key.
func keyable(arg any) (any, bool) {
	switch v := arg.(type) {
	case nil:
		return nil, false
	case None:
		return nil, false
	case *None:
		return nil, false
	case Discriminant:
		return keyable(v.Discriminant())
	}
	return arg, true
}

// Canonicalize produces a deterministic JSON encoding of v.
// Object keys are sorted at every depth; array order is preserved.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializableArg, err)
	}

	// Round-trip through generic values so struct field order stops mattering.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializableArg, err)
	}
	return canonicalize(generic)
}

func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return marshal(v)
	}
}

// marshal encodes a scalar without HTML escaping, so keys show <, > and & as is.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

var (
	_ Keyer = (*DefaultKeyer)(nil)
	_ Keyer = (*HashKeyer)(nil)
)
