package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/tinyfont"
)

func newTestPane(t *testing.T, rec *Recorder, coord *Coordinator, g Geometry, popup bool) *Pane {
	t.Helper()
	return NewPane(rec, coord, g, Style{
		Frame: White,
		Fill:  Blue,
		Text:  Yellow,
		Font:  &tinyfont.TomThumb,
		Popup: popup,
	})
}

func TestNewPane_Metrics(t *testing.T) {
	tests := []struct {
		name       string
		fontHeight int16
		height     int16
		margin     float32
		wantLine   int16
		wantOffset int16
		wantCount  int
	}{
		{name: "default margin", fontHeight: 18, height: 90, wantLine: 23, wantOffset: 2, wantCount: 3},
		{name: "exact multiple", fontHeight: 10, height: 39, wantLine: 13, wantOffset: 1, wantCount: 3},
		{name: "one short", fontHeight: 10, height: 38, wantLine: 13, wantOffset: 1, wantCount: 2},
		{name: "custom margin", fontHeight: 20, height: 100, margin: 10, wantLine: 22, wantOffset: 1, wantCount: 4},
		{name: "too short for a line", fontHeight: 24, height: 20, wantLine: 31, wantOffset: 3, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder(320, 240, 6, tt.fontHeight)
			p := NewPane(rec, nil, Geometry{W: 320, H: tt.height}, Style{MarginPct: tt.margin})

			assert.Equal(t, tt.wantLine, p.LineHeight())
			assert.Equal(t, tt.wantOffset, p.TextOffset())
			assert.Equal(t, tt.wantCount, p.LineCount())
		})
	}
}

func TestPane_SetLineOutOfRange(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{W: 100, H: 39}, false)
	require.Equal(t, 3, p.LineCount())
	require.NoError(t, p.SetLines("a", "b", "c"))

	for _, i := range []int{-1, 0, 4, 100} {
		err := p.SetLine(i, "x")
		require.Error(t, err, "index %d", i)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = p.Line(i)
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.ErrorIs(t, p.RenderLine(i), ErrOutOfRange)
	}

	assert.ErrorIs(t, p.SetLines("1", "2", "3", "4"), ErrOutOfRange)

	for i, want := range []string{"a", "b", "c"} {
		got, err := p.Line(i + 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Empty(t, rec.Ops(), "rejected writes never draw")
}

func TestPane_SetLineDoesNotDraw(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{W: 100, H: 39}, false)

	require.NoError(t, p.SetLine(2, "hello"))
	assert.Empty(t, rec.Ops())

	p.Clear()
	got, err := p.Line(2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPane_RenderLine(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{X: 0, Y: 40, W: 100, H: 39}, false)

	require.NoError(t, p.SetLine(2, "PW = 1.50s"))
	require.NoError(t, p.RenderLine(2))

	ops := rec.Ops()
	require.Len(t, ops, 3)

	assert.Equal(t, OpFill, ops[0].Kind)
	assert.Equal(t, Op{Kind: OpFill, X: 1, Y: 53, W: 98, H: 13, Color: Blue, Font: &tinyfont.TomThumb}, ops[0])

	assert.Equal(t, OpText, ops[1].Kind)
	assert.Equal(t, "PW = 1.50s", ops[1].Text)
	assert.Equal(t, int16(textInset), ops[1].X)
	assert.Equal(t, int16(54), ops[1].Y)
	assert.Equal(t, Yellow, ops[1].Color)

	assert.Equal(t, OpFlush, ops[2].Kind)
}

func TestPane_RenderBlankLineOnlyClears(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{W: 100, H: 39}, false)

	require.NoError(t, p.RenderLine(1))
	assert.Equal(t, 1, rec.Count(OpFill))
	assert.Equal(t, 0, rec.Count(OpText))
}

func TestPane_RenderLineWithFont(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{W: 100, H: 39}, false)
	require.NoError(t, p.SetLine(1, "42"))

	require.NoError(t, p.RenderLineWithFont(1, &tinyfont.Org01))

	var text Op
	for _, op := range rec.Ops() {
		if op.Kind == OpText {
			text = op
		}
	}
	assert.Equal(t, tinyfont.Fonter(&tinyfont.Org01), text.Font)
}

func TestPane_RenderAll(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{Y: 10, W: 100, H: 39}, false)
	require.NoError(t, p.SetLines("one", "", "three"))

	require.NoError(t, p.RenderAll())

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, OpRoundRect, ops[0].Kind)
	assert.Equal(t, Geometry{Y: 10, W: 100, H: 39}, Geometry{X: ops[0].X, Y: ops[0].Y, W: ops[0].W, H: ops[0].H})
	assert.Equal(t, 3, rec.Count(OpFill))
	assert.Equal(t, []string{"one", "three"}, rec.Texts())
	assert.Equal(t, 1, rec.Count(OpFlush))
	assert.Equal(t, OpFlush, ops[len(ops)-1].Kind)
}

func TestPane_SurfaceError(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, nil, Geometry{W: 100, H: 39}, false)
	rec.Err = errors.New("spi timeout")

	err := p.RenderAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, rec.Err)
	assert.Contains(t, err.Error(), "draw frame")
}

func TestPane_PopupBlocksOtherPanes(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	coord := NewCoordinator()
	status := newTestPane(t, rec, coord, Geometry{Y: 130, W: 320, H: 39}, false)
	popup := newTestPane(t, rec, coord, Geometry{W: 300, H: 200}, true)

	redrawn := 0
	coord.OnDismiss(func() error {
		redrawn++
		return status.RenderAll()
	})

	require.NoError(t, popup.SetLines("TEST COMPLETE", "3 Cycles"))
	require.NoError(t, popup.Popup())
	assert.True(t, coord.PopupVisible())

	g := popup.Geometry()
	assert.Equal(t, Geometry{X: 10, Y: 20, W: 300, H: 200}, g)

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, Op{Kind: OpClear, W: 320, H: 240, Color: PopupBackdrop, Font: ops[0].Font}, ops[0])
	assert.Equal(t, []string{"TEST COMPLETE", "3 Cycles"}, rec.Texts())

	rec.Reset()
	require.NoError(t, status.SetLine(1, "hidden"))
	require.NoError(t, status.RenderLine(1))
	require.NoError(t, status.RenderAll())
	assert.Empty(t, rec.Ops(), "non-popup panes stay quiet under a popup")

	require.NoError(t, popup.Dismiss())
	assert.False(t, coord.PopupVisible())
	assert.Equal(t, 1, redrawn)
	assert.Equal(t, OpClear, rec.Ops()[0].Kind)
	assert.Contains(t, rec.Texts(), "hidden", "dismiss recovers updates made while hidden")
}

func TestPane_PopupTakesDefaultSize(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, NewCoordinator(), Geometry{}, true)
	assert.Equal(t, Geometry{W: 260, H: 200}, p.Geometry())
	require.Equal(t, 15, p.LineCount(), "sized at construction")

	require.NoError(t, p.Popup())
	assert.Equal(t, Geometry{X: 30, Y: 20, W: 260, H: 200}, p.Geometry())
	assert.Equal(t, 15, p.LineCount(), "showing only moves the pane")
}

func TestPane_SizedPaneKeepsLineCount(t *testing.T) {
	rec := NewRecorder(320, 240, 6, 10)
	p := newTestPane(t, rec, NewCoordinator(), Geometry{W: 100}, false)
	require.Equal(t, 0, p.LineCount())

	assert.ErrorIs(t, p.SetLine(1, "x"), ErrOutOfRange)
	assert.Equal(t, 0, p.LineCount())
}

func TestCoordinator(t *testing.T) {
	var nilCoord *Coordinator
	rec := NewRecorder(320, 240, 6, 10)
	plain := newTestPane(t, rec, nil, Geometry{W: 10, H: 13}, false)

	assert.True(t, nilCoord.CanRender(plain))
	assert.False(t, nilCoord.PopupVisible())
	assert.NoError(t, nilCoord.DismissPopup())

	c := NewCoordinator()
	popup := newTestPane(t, rec, c, Geometry{W: 10, H: 13}, true)
	c.ShowPopup(popup)
	assert.False(t, c.CanRender(plain))
	assert.True(t, c.CanRender(popup))

	fail := errors.New("redraw failed")
	calls := 0
	c.OnDismiss(func() error { calls++; return fail })
	c.OnDismiss(func() error { calls++; return nil })

	err := c.DismissPopup()
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 2, calls, "every callback runs even after a failure")
	assert.True(t, c.CanRender(plain))
}
