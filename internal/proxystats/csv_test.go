package proxystats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = `# pxname,svname,qcur,scur,status,other
mygroup_80,FRONTEND,0,0,OPEN,x
mygroup_80,10_0_0_1_31000,0,2,UP,x
mygroup_80,10_0_0_2_31500,0,0,MAINT,x
mygroup_80,BACKEND,0,2,UP,x
othergroup_80,10_0_0_9_9999,0,0,UP,x
mygroup_8080,10_0_0_9_9999,0,0,UP,x
`

func TestParseCSVFiltersToBackendNameAndSkipsAggregateRows(t *testing.T) {
	rows, headers, err := parseCSV(sampleCSV, "mygroup_80")
	require.NoError(t, err)
	require.Equal(t, 1, headers)
	require.Len(t, rows, 2)

	require.Equal(t, "10.0.0.1", rows[0].Host)
	require.Equal(t, 31000, rows[0].Port)
	require.Equal(t, "UP", rows[0].Status)
	require.Equal(t, 2, rows[0].Scur)

	require.Equal(t, "10.0.0.2", rows[1].Host)
	require.Equal(t, 31500, rows[1].Port)
	require.Equal(t, "MAINT", rows[1].Status)
}

func TestParseCSVCountsOneHeaderPerConcatenatedResponse(t *testing.T) {
	rows, headers, err := parseCSV(sampleCSV+sampleCSV, "mygroup_80")
	require.NoError(t, err)
	require.Equal(t, 2, headers)
	require.Len(t, rows, 4)
}

func TestParseCSVStripsSingleQuoteQuoting(t *testing.T) {
	body := "# pxname,svname,qcur,scur,status\n'mygroup_80','10_0_0_1_31000','0','0','UP'\n"
	rows, _, err := parseCSV(body, "mygroup_80")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "UP", rows[0].Status)
}

func TestParseSvName(t *testing.T) {
	host, port, ok := parseSvName("192_168_1_5_4500")
	require.True(t, ok)
	require.Equal(t, "192.168.1.5", host)
	require.Equal(t, 4500, port)

	_, _, ok = parseSvName("FRONTEND")
	require.False(t, ok)
}
