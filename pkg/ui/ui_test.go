package ui

import (
	"testing"

	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/pulse"
	"github.com/Tamagotono/CycleTester/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder() *display.Recorder {
	return display.NewRecorder(320, 240, 6, 10)
}

func TestNewTestScreen_Layout(t *testing.T) {
	ts := NewTestScreen(newRecorder(), DefaultFonts())

	tests := []struct {
		name  string
		pane  *display.Pane
		geo   display.Geometry
		lines int
	}{
		{name: "header", pane: ts.Header, geo: display.Geometry{W: 320, H: 26}, lines: TitleLines},
		{name: "parameters", pane: ts.Parameters, geo: display.Geometry{Y: 26, W: 320, H: 55}, lines: ParamLines},
		{name: "status", pane: ts.Status, geo: display.Geometry{Y: 81, W: 320, H: 39}, lines: StatusLines},
		{name: "popup", pane: ts.Popup, geo: display.Geometry{W: 300, H: 65}, lines: PopupLines},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.geo, tt.pane.Geometry())
			assert.Equal(t, tt.lines, tt.pane.LineCount())
		})
	}
	assert.True(t, ts.Popup.IsPopup())
	assert.False(t, ts.Status.IsPopup())
}

func TestParameterLines(t *testing.T) {
	tests := []struct {
		name   string
		on     int64
		off    int64
		cycles int
		want   []string
	}{
		{
			name: "milliseconds", on: 10, off: 15, cycles: 10,
			want: []string{"PW  = 25ms", "DS  = 40%", "ON  = 10ms", "OFF = 15ms", "Time= 250ms"},
		},
		{
			name: "seconds", on: 500, off: 1500, cycles: 30,
			want: []string{"PW  = 2.00s", "DS  = 25%", "ON  = 500ms", "OFF = 1.50s", "Time= 01m 00s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := pulse.Derive(tt.on, tt.off, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParameterLines(spec, tt.cycles))
		})
	}
}

func TestTestScreen_Show(t *testing.T) {
	rec := newRecorder()
	ts := NewTestScreen(rec, DefaultFonts())
	require.NoError(t, ts.SetTitle("TEST_relay", "second", "dropped"))
	rec.Reset()

	require.NoError(t, ts.Show())

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, display.OpClear, ops[0].Kind)
	assert.Equal(t, display.Black, ops[0].Color)

	texts := rec.Texts()
	assert.Contains(t, texts, "TEST_relay")
	assert.Contains(t, texts, "second")
	assert.NotContains(t, texts, "dropped", "titles longer than the pane are cut")
	for _, label := range DefaultLabels {
		assert.Contains(t, texts, label)
	}
}

func TestTestScreen_StatusLine(t *testing.T) {
	rec := newRecorder()
	ts := NewTestScreen(rec, DefaultFonts())
	require.NoError(t, ts.SetStatus("Test in progress"))
	rec.Reset()

	require.NoError(t, ts.StatusLine(2, "3 of 10"))
	assert.Equal(t, []string{"3 of 10"}, rec.Texts())
	assert.Equal(t, 1, rec.Count(display.OpFlush))
	assert.Zero(t, rec.Count(display.OpRoundRect), "single line updates skip the frame")

	rec.Reset()
	require.NoError(t, ts.CounterLine(3, "Cycles= 4"))
	ops := rec.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, ts.Fonts().Counter, ops[1].Font)

	assert.ErrorIs(t, ts.StatusLine(StatusLines+1, "x"), display.ErrOutOfRange)
}

func TestTestScreen_Popup(t *testing.T) {
	rec := newRecorder()
	ts := NewTestScreen(rec, DefaultFonts())
	require.NoError(t, ts.Show())
	require.NoError(t, ts.SetStatus("Test in progress"))

	require.NoError(t, ts.ShowPopup("TEST COMPLETE", "3 Cycles"))
	assert.True(t, ts.Coordinator().PopupVisible())
	assert.Equal(t, display.Geometry{X: 10, Y: 87, W: 300, H: 65}, ts.Popup.Geometry())
	assert.Contains(t, rec.Texts(), "TEST COMPLETE")

	rec.Reset()
	require.NoError(t, ts.StatusLine(1, "hidden update"))
	require.NoError(t, ts.SetFooter([3]string{"", "", "OK"}))
	require.NoError(t, ts.SetParameters(pulse.Spec{}, 1))
	assert.Empty(t, rec.Ops(), "nothing draws over the popup")

	require.NoError(t, ts.DismissPopup())
	assert.False(t, ts.Coordinator().PopupVisible())

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, display.OpClear, ops[0].Kind)
	assert.Equal(t, display.Black, ops[0].Color)

	texts := rec.Texts()
	assert.Contains(t, texts, "hidden update", "updates made under the popup appear after dismiss")
	assert.Contains(t, texts, "OK")
	assert.NotContains(t, texts, "SEL")
	assert.NotContains(t, texts, "TEST COMPLETE")
}

func TestTestScreen_RefreshAllError(t *testing.T) {
	rec := newRecorder()
	ts := NewTestScreen(rec, DefaultFonts())
	rec.Err = assert.AnError

	err := ts.RefreshAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMenuScreen_Show(t *testing.T) {
	entries := []storage.Entry{
		{Name: "TEST_a", Filename: "TEST_a.yaml"},
		{Name: "TEST_b", Filename: "TEST_b.yaml"},
	}

	tests := []struct {
		name    string
		entries []storage.Entry
		notice  []string
		want    []string
		absent  []string
	}{
		{
			name:    "entries",
			entries: entries,
			notice:  []string{"ignored"},
			want:    []string{MenuTitle, "> TEST_a", "TEST_b"},
			absent:  []string{"ignored"},
		},
		{
			name:   "notice when empty",
			notice: []string{"No SD card", "Insert card"},
			want:   []string{MenuTitle, "No SD card", "Insert card"},
		},
		{
			name: "empty without notice",
			want: []string{MenuTitle, "No tests found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			ms := NewMenuScreen(rec, DefaultFonts())
			assert.Equal(t, 16, ms.Menu.LineCount())
			assert.Equal(t, 16, ms.Browser.Aperture)

			require.NoError(t, ms.Show(tt.entries, tt.notice...))

			texts := rec.Texts()
			for _, w := range tt.want {
				assert.Contains(t, texts, w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, texts, a)
			}
			for _, label := range DefaultLabels {
				assert.Contains(t, texts, label)
			}
		})
	}
}
