package common

import "errors"

var (
	ErrValidation       = errors.New("order validation failed")
	ErrPolicyInfeasible = errors.New("fill-or-kill quantity not fillable")
	ErrNoLiquidity      = errors.New("no liquidity on opposite side")
	ErrUnknownOrder     = errors.New("unknown order")
	ErrAlreadyTerminal  = errors.New("order already terminal")
)
