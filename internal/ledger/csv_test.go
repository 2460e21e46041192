package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

func TestLedgerCSV_RoundTrip(t *testing.T) {
	l := mustLedger(t,
		model.Position{Symbol: "AAPL", Shares: dec("3"), CostBasis: dec("450"), Source: "sofi", Added: date(2026, 8, 1)},
		model.Position{Symbol: "BTC-USD", Shares: dec("0.25"), CostBasis: dec("11250"), Source: "robinhood", Added: date(2026, 8, 2)},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, l))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])

	got, err := ReadLedger(&buf)
	require.NoError(t, err)
	assert.Equal(t, l.Positions(), got.Positions())
}

func TestLedgerCSV_DecimalsKeepExactForm(t *testing.T) {
	l := mustLedger(t, model.Position{Symbol: "VTI", Shares: dec("5.500"), CostBasis: dec("500.10")})

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, l))
	assert.Contains(t, buf.String(), "VTI,5.500,500.10,,")
}

func TestReadLedger_EmptyInput(t *testing.T) {
	l, err := ReadLedger(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestReadLedger_HeaderOnly(t *testing.T) {
	l, err := ReadLedger(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestReadLedger_BadRowReported(t *testing.T) {
	in := Header + "\nAAPL,notanumber,450,,\n"
	_, err := ReadLedger(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestUnmarshalPosition_FieldCount(t *testing.T) {
	_, err := UnmarshalPosition([]string{"AAPL", "3"})
	require.Error(t, err)
}
