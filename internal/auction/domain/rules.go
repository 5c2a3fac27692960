package domain

import "fmt"

// SettlementMode chooses between settling in one step or in finalize+complete
type SettlementMode string

const (
	SinglePhase SettlementMode = "single_phase"
	TwoPhase    SettlementMode = "two_phase"
)

// CollateralRule decides how the locked collateral must relate to the revealed amount
type CollateralRule string

const (
	// CollateralAtLeast allows over-collateralization, the winner gets the excess back
	CollateralAtLeast CollateralRule = "at_least"
	// CollateralExact requires the deposit to be exactly the sealed amount
	CollateralExact CollateralRule = "exact"
)

// Rules is the per-auction configuration of the state machine
type Rules struct {
	Settlement SettlementMode
	Collateral CollateralRule
	Scheme     CommitmentScheme
}

// DefaultRules matches the single phase, over-collateralized, sha256 variant
func DefaultRules() Rules {
	return Rules{
		Settlement: SinglePhase,
		Collateral: CollateralAtLeast,
		Scheme:     SchemeSHA256,
	}
}

// ParseRules validates configured rule names
func ParseRules(settlement, collateral, scheme string) (Rules, error) {
	r := Rules{
		Settlement: SettlementMode(settlement),
		Collateral: CollateralRule(collateral),
	}
	var err error
	if r.Scheme, err = ParseCommitmentScheme(scheme); err != nil {
		return Rules{}, err
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) Validate() error {
	switch r.Settlement {
	case SinglePhase, TwoPhase:
	default:
		return fmt.Errorf("%w: unknown settlement mode %q", ErrInvalidRules, r.Settlement)
	}
	switch r.Collateral {
	case CollateralAtLeast, CollateralExact:
	default:
		return fmt.Errorf("%w: unknown collateral rule %q", ErrInvalidRules, r.Collateral)
	}
	if _, err := ParseCommitmentScheme(string(r.Scheme)); err != nil {
		return err
	}
	return nil
}

// CheckCollateral validates the locked deposit against a revealed amount
func (r Rules) CheckCollateral(locked, revealed Amount) error {
	switch r.Collateral {
	case CollateralExact:
		if locked != revealed {
			return ErrDepositMismatch
		}
	default:
		if locked < revealed {
			return ErrDepositMismatch
		}
	}
	return nil
}
