package swift

import "context"

// ComplianceGate screens a transfer against sanctions/watchlists before
// submission, returning cleared or blocked. Concrete implementations live
// in internal/aml, which owns the ingested sanctions data.
type ComplianceGate interface {
	Screen(ctx context.Context, beneficiaryName, orderingCustomer string) (cleared bool, reason string, err error)
}

// AlwaysClearGate is a no-op ComplianceGate for environments/tests that
// don't wire internal/aml.
type AlwaysClearGate struct{}

func (AlwaysClearGate) Screen(context.Context, string, string) (bool, string, error) {
	return true, "", nil
}
