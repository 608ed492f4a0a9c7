package swift_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/swift"
)

// MT103 :32A: for amount 10000, currency USD, date 2026-01-15 must render
// literally as 260115USD10000,00.
func TestField32A_MatchesWorkedExample(t *testing.T) {
	amount, err := money.New("USD", "10000")
	require.NoError(t, err)

	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "260115USD10000,00", swift.FormatField32A(date, amount))
}

func TestBuildMT103_FoldsAndTruncatesNames(t *testing.T) {
	sender, err := swift.ParseBIC("DEUTDEFF")
	require.NoError(t, err)

	receiver, err := swift.ParseBIC("BARCGB22")
	require.NoError(t, err)

	amount, err := money.New("EUR", "500.00")
	require.NoError(t, err)

	msg, err := swift.BuildMT103(swift.MT103Fields{
		SenderBIC:        sender,
		ReceiverBIC:      receiver,
		Reference:        "REF0001",
		OperationCode:    "CRED",
		ValueDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:           amount,
		OrderingCustomer: "José Álvarez",
		BeneficiaryBank:  string(receiver),
		Beneficiary:      "Acme Ltd",
		ChargeType:       swift.ChargeSHA,
	})
	require.NoError(t, err)

	assert.Contains(t, msg, "{1:F01DEUTDEFFXXX0000000000}")
	assert.Contains(t, msg, ":50K:JOSE ALVAREZ")
	assert.Contains(t, msg, ":71A:SHA")
}

func TestMT103Fields_Validate_RejectsLongReference(t *testing.T) {
	f := swift.MT103Fields{Reference: "THIS-REFERENCE-IS-WAY-TOO-LONG", ChargeType: swift.ChargeOUR}

	err := f.Validate()
	require.Error(t, err)
}

func TestMT103Fields_Validate_RejectsUnknownChargeType(t *testing.T) {
	f := swift.MT103Fields{Reference: "REF1", ChargeType: swift.ChargeType("ZZZ")}

	err := f.Validate()
	require.Error(t, err)
}

func TestParseMT103_RoundTripsBuiltMessage(t *testing.T) {
	sender, err := swift.ParseBIC("DEUTDEFF")
	require.NoError(t, err)

	receiver, err := swift.ParseBIC("BARCGB22")
	require.NoError(t, err)

	amount, err := money.New("USD", "10000")
	require.NoError(t, err)

	fields := swift.MT103Fields{
		SenderBIC:           sender,
		ReceiverBIC:         receiver,
		Reference:           "REF20260115A",
		OperationCode:       "CRED",
		ValueDate:           time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:              amount,
		OrderingCustomer:    "JANE DOE",
		OrderingInstitution: "DEUTDEFFXXX",
		BeneficiaryBank:     "BARCGB22XXX",
		Beneficiary:         "ACME LTD/GB29NWBK60161331926819",
		RemittanceInfo:      "INVOICE 42",
		ChargeType:          swift.ChargeSHA,
	}

	msg, err := swift.BuildMT103(fields)
	require.NoError(t, err)

	parsed, err := swift.ParseMT103(msg)
	require.NoError(t, err)

	assert.Equal(t, fields.SenderBIC, parsed.SenderBIC)
	assert.Equal(t, fields.ReceiverBIC, parsed.ReceiverBIC)
	assert.Equal(t, fields.Reference, parsed.Reference)
	assert.Equal(t, fields.OperationCode, parsed.OperationCode)
	assert.Equal(t, fields.ValueDate.Format("060102"), parsed.ValueDate.Format("060102"))
	assert.True(t, fields.Amount.Value.Equal(parsed.Amount.Value))
	assert.Equal(t, fields.Amount.Currency, parsed.Amount.Currency)
	assert.Equal(t, fields.OrderingCustomer, parsed.OrderingCustomer)
	assert.Equal(t, fields.Beneficiary, parsed.Beneficiary)
	assert.Equal(t, fields.RemittanceInfo, parsed.RemittanceInfo)
	assert.Equal(t, fields.ChargeType, parsed.ChargeType)
}
