package swift_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/swift"
)

func TestParseBIC_Normalizes8CharTo11(t *testing.T) {
	bic, err := swift.ParseBIC("DEUTDEFF")
	require.NoError(t, err)
	assert.Equal(t, swift.BIC("DEUTDEFFXXX"), bic)
}

func TestParseBIC_Accepts11Char(t *testing.T) {
	bic, err := swift.ParseBIC("deutdeffbvb")
	require.NoError(t, err)
	assert.Equal(t, swift.BIC("DEUTDEFFBVB"), bic)
}

func TestParseBIC_RejectsUnknownCountry(t *testing.T) {
	_, err := swift.ParseBIC("DEUTZZFF")
	require.Error(t, err)
}

func TestParseBIC_RejectsBadLength(t *testing.T) {
	_, err := swift.ParseBIC("DEUTDE")
	require.Error(t, err)
}

func TestParseBIC_RejectsMalformedBankCode(t *testing.T) {
	_, err := swift.ParseBIC("123TDEFF")
	require.Error(t, err)
}
