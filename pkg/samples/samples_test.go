package samples

import (
	"testing"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolume_AllTestsLoad(t *testing.T) {
	reg := config.NewRegistry(Volume(), config.Default().Storage)
	entries, err := reg.Scan()
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"31334", "32109", "quick", "soak"}, names)

	for _, e := range entries {
		t.Run(e.Name, func(t *testing.T) {
			tc, err := reg.Load(e.Name)
			require.NoError(t, err)
			assert.NotEmpty(t, tc.Title)
			_, err = tc.Spec()
			assert.NoError(t, err)
		})
	}
}

func TestVolume_Timing(t *testing.T) {
	reg := config.NewRegistry(Volume(), config.Default().Storage)
	_, err := reg.Scan()
	require.NoError(t, err)

	tc, err := reg.Load("31334")
	require.NoError(t, err)
	spec, err := tc.Spec()
	require.NoError(t, err)
	assert.Equal(t, int64(66), spec.OnTime.Milliseconds())
	assert.Equal(t, int64(264), spec.OffTime.Milliseconds())

	tc, err = reg.Load("soak")
	require.NoError(t, err)
	require.NotNil(t, tc.MeasureCurrent)
	assert.Equal(t, "5s", tc.MeasureCurrent.Dwell.String())
	assert.True(t, tc.HoldsPower(config.OutputConfig{}))
}
