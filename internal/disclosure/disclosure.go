// Package disclosure implements selective attribute disclosure. A holder
// reveals a chosen subset of credential attributes; the rest are bound by a
// commitment hash so the issuer's view can later be checked against what was
// revealed without learning the hidden values.
package disclosure

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// UndisclosedHashKey carries the commitment over the hidden attributes
// inside disclosed data. It is reserved and cannot be an attribute name.
const UndisclosedHashKey = "_undisclosed_hash"

// Disclose returns the requested attributes plus a hash binding the
// undisclosed remainder. Requesting an attribute the data does not contain
// is a validation error.
func Disclose(data attrs.Map, disclosed []string) (attrs.Map, error) {
	out := make(attrs.Map, len(disclosed)+1)
	revealed := make(map[string]bool, len(disclosed))
	for _, name := range disclosed {
		if name == UndisclosedHashKey {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("attribute name %s is reserved", UndisclosedHashKey))
		}
		value, ok := data[name]
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("attribute %s not found in credential", name))
		}
		out[name] = value
		revealed[name] = true
	}

	out[UndisclosedHashKey] = attrs.String(hashUndisclosed(data, revealed))
	return out, nil
}

// VerifyDisclosure checks disclosed data against the full attribute map:
// every revealed value must match, and the commitment hash must equal the
// hash recomputed over the attributes that were kept hidden.
func VerifyDisclosure(original, disclosed attrs.Map) (bool, error) {
	revealed := make(map[string]bool, len(disclosed))
	for name, value := range disclosed {
		if name == UndisclosedHashKey {
			continue
		}
		originalValue, ok := original[name]
		if !ok || !value.Equal(originalValue) {
			return false, nil
		}
		revealed[name] = true
	}

	hashValue, ok := disclosed[UndisclosedHashKey]
	if !ok {
		// Without a commitment, the disclosure must be total.
		return len(revealed) == len(original), nil
	}
	claimed, ok := hashValue.StringValue()
	if !ok {
		return false, dErrors.New(dErrors.CodeValidation, "undisclosed hash is not a string")
	}

	return claimed == hashUndisclosed(original, revealed), nil
}

// hashUndisclosed hashes the hidden attributes in sorted key order, so the
// commitment is stable across map iteration orders.
func hashUndisclosed(data attrs.Map, revealed map[string]bool) string {
	h := sha256.New()
	for _, key := range data.SortedKeys() {
		if revealed[key] {
			continue
		}
		h.Write([]byte(key))
		h.Write([]byte(data[key].String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
