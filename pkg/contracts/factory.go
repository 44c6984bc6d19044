package contracts

import (
	"context"
	"fmt"
	"strings"
)

// Factory state keys.
const (
	KeyMatcherPublicKey           = "%s__matcherPublicKey"
	KeyValidatorAddress           = "%s__validatorAddress"
	KeyPredictionValidatorAddress = "%s__predictionValidatorAddress"
	KeyTreasuryAddress            = "%s__treasuryAddress"
	KeyPoolAddress                = "%s__poolAddress"
	KeySpotAddress                = "%s__spotAddress"
	KeyLeverageAddress            = "%s__leverageAddress"
	KeyPredictionAddress          = "%s__predictionAddress"
)

// Factory is the registry of the exchange: every other dApp address and the
// matcher key orders must name. Missing keys are left empty.
type Factory struct {
	Address                    string  `json:"factoryAddress"`
	MatcherPublicKey           string  `json:"matcherPublicKey"`
	ValidatorAddress           string  `json:"validatorAddress"`
	PredictionValidatorAddress string  `json:"predictionValidatorAddress"`
	TreasuryAddress            string  `json:"treasuryAddress"`
	PoolAddress                string  `json:"poolAddress"`
	SpotAddress                string  `json:"spotAddress"`
	LeverageAddress            string  `json:"leverageAddress"`
	PredictionAddress          string  `json:"predictionAddress"`
	Events                     []Event `json:"events"`
	DepositURL                 string  `json:"depositUrl,omitempty"`
}

// FactoryFromState decodes the registry keys and the event statuses.
func FactoryFromState(address string, state State) *Factory {
	f := &Factory{
		Address:                    address,
		MatcherPublicKey:           state.String(KeyMatcherPublicKey),
		ValidatorAddress:           state.String(KeyValidatorAddress),
		PredictionValidatorAddress: state.String(KeyPredictionValidatorAddress),
		TreasuryAddress:            state.String(KeyTreasuryAddress),
		PoolAddress:                state.String(KeyPoolAddress),
		SpotAddress:                state.String(KeySpotAddress),
		LeverageAddress:            state.String(KeyLeverageAddress),
		PredictionAddress:          state.String(KeyPredictionAddress),
		Events:                     EventsFromState(state),
	}
	if f.TreasuryAddress != "" {
		f.DepositURL = DepositURL(f.TreasuryAddress)
	}
	return f
}

// LoadFactory reads the factory dApp state.
func LoadFactory(ctx context.Context, n Node, address string) (*Factory, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("factory address is not configured")
	}
	state, err := LoadState(ctx, n, address)
	if err != nil {
		return nil, fmt.Errorf("load factory state: %w", err)
	}
	return FactoryFromState(address, state), nil
}

// ValidatorFor picks the dApp that validates an exchange: prediction orders go
// to the prediction validator.
func (f *Factory) ValidatorFor(prediction bool) (string, error) {
	if prediction {
		if f.PredictionValidatorAddress == "" {
			return "", fmt.Errorf("factory has no prediction validator")
		}
		return f.PredictionValidatorAddress, nil
	}
	if f.ValidatorAddress == "" {
		return "", fmt.Errorf("factory has no validator")
	}
	return f.ValidatorAddress, nil
}
