package fieldcrypt

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
)

// Placeholder replaces empty optional values before encryption so that every
// manifest column of a private record holds ciphertext. It decrypts back to a
// single space, which readers must treat as empty (see IsBlank).
const Placeholder = " "

// IsBlank reports whether a decrypted value stands for "no value".
func IsBlank(v string) bool {
	return v == "" || v == Placeholder
}

// Policy selects what DecryptEntity does with a field that fails to decrypt.
type Policy int

const (
	// FallbackOnError keeps the still-encoded value and carries on.
	FallbackOnError Policy = iota
	// Propagate stops at the first failing field and returns its error.
	Propagate
)

var (
	ErrUnknownKind = errors.New("unknown record kind")
	ErrNotStruct   = errors.New("record must be a struct value")
)

// FieldError reports which column of which record kind failed.
type FieldError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Kind, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Sensitive is implemented by every model that carries an is_private flag.
type Sensitive interface {
	Private() bool
}

// EncryptEntity returns a copy of entity with every manifest field of kind
// encrypted under key. Empty values become Placeholder first; values that are
// already encrypted are left alone by the codec. Other fields are untouched.
//
// All fields are sealed with the single key passed in; resolve it once per
// write and never per field.
func EncryptEntity[T any](ctx context.Context, c *cryptox.Codec, kind Kind, entity T, key cryptox.Key) (T, error) {
	v, idx, err := fieldsOf(&entity, kind)
	if err != nil {
		return entity, err
	}

	for i, fi := range idx {
		f := v.Field(fi)
		value := f.String()
		if value == "" {
			value = Placeholder
		}
		enc, err := c.Encrypt(ctx, value, key)
		if err != nil {
			return entity, &FieldError{Kind: kind, Field: manifests[kind][i], Err: err}
		}
		f.SetString(enc)
	}
	return entity, nil
}

// DecryptEntity returns a copy of entity with every manifest field decrypted.
// Plaintext fields pass through, so partially migrated records are fine.
func DecryptEntity[T any](ctx context.Context, c *cryptox.Codec, kind Kind, entity T, key cryptox.Key, policy Policy) (T, error) {
	v, idx, err := fieldsOf(&entity, kind)
	if err != nil {
		return entity, err
	}

	for i, fi := range idx {
		f := v.Field(fi)
		if policy == FallbackOnError {
			f.SetString(c.DecryptBackwardsCompatible(ctx, f.String(), key))
			continue
		}
		plain, err := c.Decrypt(f.String(), key)
		if err != nil {
			return entity, &FieldError{Kind: kind, Field: manifests[kind][i], Err: err}
		}
		f.SetString(plain)
	}
	return entity, nil
}

// Seal encrypts entity only when it is private; public records are stored as
// plain text.
func Seal[T Sensitive](ctx context.Context, c *cryptox.Codec, kind Kind, entity T, key cryptox.Key) (T, error) {
	if !entity.Private() {
		return entity, nil
	}
	return EncryptEntity(ctx, c, kind, entity, key)
}

// Open decrypts entity whatever its flag says: a record saved while private
// and later flipped to public may still hold ciphertext.
func Open[T Sensitive](ctx context.Context, c *cryptox.Codec, kind Kind, entity T, key cryptox.Key, policy Policy) (T, error) {
	return DecryptEntity(ctx, c, kind, entity, key, policy)
}

// NeedsMigration reports whether a private record still has manifest fields
// stored in plain text and should be written back encrypted.
func NeedsMigration[T Sensitive](kind Kind, entity T) bool {
	if !entity.Private() {
		return false
	}
	v, idx, err := fieldsOf(&entity, kind)
	if err != nil {
		return false
	}
	for _, fi := range idx {
		if !cryptox.IsEncrypted(v.Field(fi).String()) {
			return true
		}
	}
	return false
}

type indexKey struct {
	t    reflect.Type
	kind Kind
}

var indexCache sync.Map // indexKey -> []int

func fieldsOf(ptr any, kind Kind) (reflect.Value, []int, error) {
	v := reflect.ValueOf(ptr).Elem()
	if v.Kind() != reflect.Struct {
		return v, nil, ErrNotStruct
	}
	idx, err := fieldIndexes(v.Type(), kind)
	return v, idx, err
}

func fieldIndexes(t reflect.Type, kind Kind) ([]int, error) {
	if cached, ok := indexCache.Load(indexKey{t, kind}); ok {
		return cached.([]int), nil
	}

	names, ok := manifests[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	byTag := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			byTag[tag] = i
		}
	}

	idx := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := byTag[name]
		if !ok {
			return nil, fmt.Errorf("%s: no column %q on %s", kind, name, t)
		}
		if t.Field(i).Type.Kind() != reflect.String {
			return nil, fmt.Errorf("%s: column %q on %s is not a string", kind, name, t)
		}
		idx = append(idx, i)
	}

	indexCache.Store(indexKey{t, kind}, idx)
	return idx, nil
}
