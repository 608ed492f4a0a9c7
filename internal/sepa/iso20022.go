package sepa

import (
	"encoding/xml"
	"time"

	"github.com/meridianledger/corebank/internal/platform/money"
)

// pain001 is a minimal Customer Credit Transfer Initiation document
// (pain.001.001.09), carrying only the fields the batch submission step
// needs to build a well-formed instruction; it is not a full schema
// implementation.
type pain001 struct {
	XMLName xml.Name       `xml:"Document"`
	XMLNS   string         `xml:"xmlns,attr"`
	CstmrCdtTrfInitn pain001Body `xml:"CstmrCdtTrfInitn"`
}

type pain001Body struct {
	GrpHdr pain001GroupHeader  `xml:"GrpHdr"`
	PmtInf []pain001PaymentInfo `xml:"PmtInf"`
}

type pain001GroupHeader struct {
	MsgID       string `xml:"MsgId"`
	CreDtTm     string `xml:"CreDtTm"`
	NbOfTxs     int    `xml:"NbOfTxs"`
	CtrlSum     string `xml:"CtrlSum"`
}

type pain001PaymentInfo struct {
	PmtInfID string                `xml:"PmtInfId"`
	PmtMtd   string                `xml:"PmtMtd"`
	CdtTrfTx []pain001CreditTransfer `xml:"CdtTrfTxInf"`
}

type pain001CreditTransfer struct {
	EndToEndID string            `xml:"PmtId>EndToEndId"`
	Amount     pain001Amount     `xml:"Amt>InstdAmt"`
	CdtrAcct   pain001AccountRef `xml:"CdtrAcct>Id>IBAN"`
}

type pain001Amount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type pain001AccountRef struct {
	IBAN string `xml:",chardata"`
}

// Instruction describes one SEPA credit-transfer leg to embed in a batch
// message.
type Instruction struct {
	EndToEndID      string
	CreditorIBAN    string
	Amount          money.Amount
}

// BuildPain001 renders a pain.001.001.09 document for a batch of credit
// transfer instructions.
func BuildPain001(messageID string, instructions []Instruction, createdAt time.Time) ([]byte, error) {
	if len(instructions) == 0 {
		return nil, ErrBatchEmpty(messageID)
	}

	total := instructions[0].Amount
	for _, i := range instructions[1:] {
		total = total.Add(i.Amount)
	}

	doc := pain001{
		XMLNS: "urn:iso:std:iso:20022:tech:xsd:pain.001.001.09",
		CstmrCdtTrfInitn: pain001Body{
			GrpHdr: pain001GroupHeader{
				MsgID:   messageID,
				CreDtTm: createdAt.UTC().Format(time.RFC3339),
				NbOfTxs: len(instructions),
				CtrlSum: total.Value.StringFixed(money.Scale),
			},
			PmtInf: []pain001PaymentInfo{{
				PmtInfID: messageID,
				PmtMtd:   "TRF",
				CdtTrfTx: toPain001Transfers(instructions),
			}},
		},
	}

	return xml.MarshalIndent(doc, "", "  ")
}

func toPain001Transfers(instructions []Instruction) []pain001CreditTransfer {
	out := make([]pain001CreditTransfer, 0, len(instructions))

	for _, i := range instructions {
		out = append(out, pain001CreditTransfer{
			EndToEndID: i.EndToEndID,
			Amount:     pain001Amount{Ccy: i.Amount.Currency, Value: i.Amount.Value.StringFixed(money.Scale)},
			CdtrAcct:   pain001AccountRef{IBAN: i.CreditorIBAN},
		})
	}

	return out
}

// pacs008 is a minimal FI to FI Customer Credit Transfer
// (pacs.008.001.08), the interbank message the submit step builds for a
// single SCT_INST transfer; batches go out as pain.001.
type pacs008 struct {
	XMLName xml.Name     `xml:"Document"`
	XMLNS   string       `xml:"xmlns,attr"`
	FIToFICstmrCdtTrf pacs008Body `xml:"FIToFICstmrCdtTrf"`
}

type pacs008Body struct {
	GrpHdr pacs008GroupHeader `xml:"GrpHdr"`
	CdtTrfTxInf pacs008Transaction `xml:"CdtTrfTxInf"`
}

type pacs008GroupHeader struct {
	MsgID   string `xml:"MsgId"`
	CreDtTm string `xml:"CreDtTm"`
	NbOfTxs int    `xml:"NbOfTxs"`
}

type pacs008Transaction struct {
	EndToEndID string        `xml:"PmtId>EndToEndId"`
	IntrBkSttlmAmt pain001Amount `xml:"IntrBkSttlmAmt"`
	DbtrAcct   pain001AccountRef `xml:"DbtrAcct>Id>IBAN"`
	CdtrAcct   pain001AccountRef `xml:"CdtrAcct>Id>IBAN"`
}

// BuildPacs008 renders the interbank settlement message for a single
// credit-transfer instruction.
func BuildPacs008(messageID, endToEndID, debtorIBAN, creditorIBAN string, amount money.Amount, createdAt time.Time) ([]byte, error) {
	doc := pacs008{
		XMLNS: "urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08",
		FIToFICstmrCdtTrf: pacs008Body{
			GrpHdr: pacs008GroupHeader{
				MsgID:   messageID,
				CreDtTm: createdAt.UTC().Format(time.RFC3339),
				NbOfTxs: 1,
			},
			CdtTrfTxInf: pacs008Transaction{
				EndToEndID:     endToEndID,
				IntrBkSttlmAmt: pain001Amount{Ccy: amount.Currency, Value: amount.Value.StringFixed(money.Scale)},
				DbtrAcct:       pain001AccountRef{IBAN: debtorIBAN},
				CdtrAcct:       pain001AccountRef{IBAN: creditorIBAN},
			},
		},
	}

	return xml.MarshalIndent(doc, "", "  ")
}
