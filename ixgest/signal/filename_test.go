package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/qntx-signal/errors"
)

func TestParseFileTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Time
		wantErr bool
	}{
		{name: "SIEM_ISC1_2022_11_05_0815.dat", want: time.Date(2022, 11, 5, 8, 15, 0, 0, time.UTC)},
		{name: "SIEM_ISC1_2022_11_05_0000", want: time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)},
		{name: "ECON_K9_2023_01_31_2359_extra.datZ", want: time.Date(2023, 1, 31, 23, 59, 0, 0, time.UTC)},
		{name: "/abs/dir/SIEM_ISC1_2022_11_05_1200.dat", want: time.Date(2022, 11, 5, 12, 0, 0, 0, time.UTC)},
		{name: "SIEM_ISC1_2022_11_05.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_05_815.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_05_2460.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_13_05_0800.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_02_30_0800.dat", wantErr: true},
		{name: "SIEM_ISC1_yyyy_11_05_0800.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_05_08h0.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_05_+800.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_05_-800.dat", wantErr: true},
		{name: "SIEM_ISC1_2022_11_+5_0800.dat", wantErr: true},
		{name: "SIEM_ISC1_+2022_11_05_0800.dat", wantErr: true},
		{name: "SIEM_ISC1_2022__05_0800.dat", wantErr: true},
		{name: "readme.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileTimestamp(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedFilename))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseFileTimestamp_Layout(t *testing.T) {
	ts, err := ParseFileTimestamp("SIEM_ISC1_2022_11_05_0830.dat")
	require.NoError(t, err)
	assert.Equal(t, "2022-11-05 08:30:00", ts.Format(BitMaskTimeLayout))
}
