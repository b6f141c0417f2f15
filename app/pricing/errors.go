package pricing

import "errors"

var (
	ErrVariantNotFound  = errors.New("plan variant not found")
	ErrAddOnNotOffered  = errors.New("add-on not offered for this plan variant")
	ErrInvalidQuantity  = errors.New("invalid add-on quantity")
	ErrInvalidFrequency = errors.New("invalid add-on frequency")
	ErrWithinCutoff     = errors.New("within billing cutoff window")
)
