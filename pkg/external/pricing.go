package external

import "context"

// ServerSpec is the cpu/memory/gpu/vram recommendation shape a pricing
// catalogue is queried against.
type ServerSpec struct {
	VCPUs    float64
	MemoryMB float64
	GPUCount float64
	VRAMGB   float64
}

// Offer is one catalogue match returned by a PricingLookup.
type Offer struct {
	Vendor       string
	InstanceType string
	PriceUSDHour float64
}

// PricingLookup is declared as an interface only: a pure HTTP GET against
// a remote catalogue is explicitly out of scope for this module.
// Recommend returns (nil, nil) rather than an error when the catalogue
// has nothing to offer.
type PricingLookup interface {
	Recommend(ctx context.Context, spec ServerSpec) ([]Offer, error)
}
