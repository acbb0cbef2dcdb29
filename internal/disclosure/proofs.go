package disclosure

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ing-bank/zkrp/bulletproofs"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Comparator names a predicate relation over an integer attribute.
type Comparator string

const (
	CmpGTE Comparator = ">="
	CmpLTE Comparator = "<="
	CmpGT  Comparator = ">"
	CmpLT  Comparator = "<"
	CmpEQ  Comparator = "=="
	CmpNE  Comparator = "!="
)

// RangeProofWithCommitment is a serialized Bulletproof together with the
// Pedersen commitment it opens and the attribute it speaks about.
type RangeProofWithCommitment struct {
	Proof         json.RawMessage `json:"proof"`
	Commitment    json.RawMessage `json:"commitment"`
	AttributeName string          `json:"attribute_name"`
}

// PredicateProof proves that an attribute satisfies a comparison against a
// public threshold without revealing the attribute value.
type PredicateProof struct {
	AttributeName  string                   `json:"attribute_name"`
	PredicateType  Comparator               `json:"predicate_type"`
	PredicateValue int64                    `json:"predicate_value"`
	RangeProof     RangeProofWithCommitment `json:"range_proof"`
}

var (
	setupOnce   sync.Once
	rangeParams bulletproofs.BulletProofSetupParams
	setupErr    error
)

func proofParams() (bulletproofs.BulletProofSetupParams, error) {
	setupOnce.Do(func() {
		rangeParams, setupErr = bulletproofs.Setup(bulletproofs.MAX_RANGE_END)
	})
	if setupErr != nil {
		return bulletproofs.BulletProofSetupParams{}, dErrors.Wrap(setupErr, dErrors.CodeCrypto, "set up range proof generators")
	}
	return rangeParams, nil
}

// CreateRangeProof proves that value lies in [0, 2^32).
func CreateRangeProof(value int64, attributeName string) (*RangeProofWithCommitment, error) {
	if value < 0 || value >= bulletproofs.MAX_RANGE_END {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("value %d is outside the provable range [0, 2^32)", value))
	}

	params, err := proofParams()
	if err != nil {
		return nil, err
	}
	proof, err := bulletproofs.Prove(new(big.Int).SetInt64(value), params)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "create range proof")
	}

	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "encode range proof")
	}
	commitmentJSON, err := json.Marshal(proof.V)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "encode commitment")
	}

	return &RangeProofWithCommitment{
		Proof:         proofJSON,
		Commitment:    commitmentJSON,
		AttributeName: attributeName,
	}, nil
}

// VerifyRangeProof checks the Bulletproof and that the attached commitment
// is the one the proof commits to.
func VerifyRangeProof(p *RangeProofWithCommitment) (bool, error) {
	var proof bulletproofs.BulletProof
	if err := json.Unmarshal(p.Proof, &proof); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeProtocol, "decode range proof")
	}

	commitmentJSON, err := json.Marshal(proof.V)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeCrypto, "encode commitment")
	}
	if string(commitmentJSON) != string(p.Commitment) {
		return false, nil
	}

	ok, err := proof.Verify()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeCrypto, "verify range proof")
	}
	return ok, nil
}

// CreatePredicateProof proves attributeValue cmp threshold by reducing the
// comparison to a non-negativity statement over a derived difference:
//
//	>=  proves value - threshold      in range
//	<=  proves threshold - value      in range
//	>   proves value - threshold - 1  in range
//	<   proves threshold - value - 1  in range
//	==  proves 0                      in range
//	!=  proves |value - threshold|    in range
//
// The holder side refuses to build a proof for an unsatisfied predicate.
// Note that == and != carry no cryptographic weight beyond the holder's
// refusal; the difference value itself stays hidden either way.
func CreatePredicateProof(attributeName string, attributeValue int64, cmp Comparator, threshold int64) (*PredicateProof, error) {
	var diff int64
	switch cmp {
	case CmpGTE:
		diff = attributeValue - threshold
	case CmpLTE:
		diff = threshold - attributeValue
	case CmpGT:
		diff = attributeValue - threshold - 1
	case CmpLT:
		diff = threshold - attributeValue - 1
	case CmpEQ:
		if attributeValue != threshold {
			return nil, unsatisfied(attributeName, cmp, threshold)
		}
		diff = 0
	case CmpNE:
		if attributeValue == threshold {
			return nil, unsatisfied(attributeName, cmp, threshold)
		}
		diff = attributeValue - threshold
		if diff < 0 {
			diff = -diff
		}
	default:
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unsupported predicate type: %s", cmp))
	}
	if diff < 0 {
		return nil, unsatisfied(attributeName, cmp, threshold)
	}

	rangeProof, err := CreateRangeProof(diff, attributeName)
	if err != nil {
		return nil, err
	}
	return &PredicateProof{
		AttributeName:  attributeName,
		PredicateType:  cmp,
		PredicateValue: threshold,
		RangeProof:     *rangeProof,
	}, nil
}

// VerifyPredicateProof checks the embedded range proof.
func VerifyPredicateProof(p *PredicateProof) (bool, error) {
	switch p.PredicateType {
	case CmpGTE, CmpLTE, CmpGT, CmpLT, CmpEQ, CmpNE:
	default:
		return false, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unsupported predicate type: %s", p.PredicateType))
	}
	return VerifyRangeProof(&p.RangeProof)
}

func unsatisfied(name string, cmp Comparator, threshold int64) error {
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("attribute %s does not satisfy predicate %s %d", name, cmp, threshold))
}
