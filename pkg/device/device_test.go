package device

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariyeh/bagtag/pkg/scan"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantValue string
		wantOK    bool
		wantErr   bool
	}{
		{"serial", "04:A2:2B:11", "04:A2:2B:11", true, false},
		{"text", "text:TAG-1", "TAG-1", true, false},
		{"raw ndef text", "ndef:02656e5441472d32", "TAG-2", true, false},
		{"bad ndef hex", "ndef:zz", "", false, true},
		{"read error", "error: rf field lost", "", false, true},
		{"blank line", "   ", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, r.Err)
				return
			}
			require.NoError(t, r.Err)
			v, ok := scan.ExtractValue(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, v)
		})
	}
}

func TestLineReader_DeliversToActiveScan(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewLineReader(pr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := r.Scan(ctx)
	require.NoError(t, err)

	go func() { _, _ = io.WriteString(pw, "text:TAG-1\n04:11\n") }()

	first := <-ch
	v, _ := scan.ExtractValue(first)
	assert.Equal(t, "TAG-1", v)
	second := <-ch
	assert.Equal(t, "04:11", second.SerialNumber)

	cancel()
	_, open := <-ch
	assert.False(t, open, "stream must close once the scan context is done")

	// a later scan picks up lines written after the first one ended
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	ch2, err := r.Scan(ctx2)
	require.NoError(t, err)
	go func() { _, _ = io.WriteString(pw, "text:TAG-3\n") }()
	third := <-ch2
	v, _ = scan.ExtractValue(third)
	assert.Equal(t, "TAG-3", v)

	require.NoError(t, pw.Close())
	_, open = <-ch2
	assert.False(t, open)
	assert.Eventually(t, func() bool { return !r.Available() }, time.Second, 5*time.Millisecond)

	_, err = r.Scan(context.Background())
	assert.Error(t, err)
}

func TestLineReader_DropsTapsBetweenScans(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewLineReader(pr)

	ctx1, cancel1 := context.WithCancel(context.Background())
	ch1, err := r.Scan(ctx1)
	require.NoError(t, err)
	go func() { _, _ = io.WriteString(pw, "text:BAG-1\n") }()
	v, _ := scan.ExtractValue(<-ch1)
	assert.Equal(t, "BAG-1", v)
	cancel1()
	for range ch1 {
	}

	// nobody is scanning: the tap must not be held for the next scan.
	// The second write only completes once the pump has handled the first.
	_, err = io.WriteString(pw, "text:STRAY\n")
	require.NoError(t, err)
	_, err = io.WriteString(pw, "\n")
	require.NoError(t, err)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	ch2, err := r.Scan(ctx2)
	require.NoError(t, err)
	go func() { _, _ = io.WriteString(pw, "text:LOOKUP-1\n") }()

	for {
		select {
		case rd := <-ch2:
			v, ok := scan.ExtractValue(rd)
			if !ok {
				continue
			}
			assert.Equal(t, "LOOKUP-1", v, "scan received a tap made before it started")
			return
		case <-time.After(time.Second):
			t.Fatal("no reading delivered to the second scan")
		}
	}
}

func TestLineReader_NewestScanWins(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewLineReader(pr)

	ctxOld, cancelOld := context.WithCancel(context.Background())
	defer cancelOld()
	older, err := r.Scan(ctxOld)
	require.NoError(t, err)
	ctxNew, cancelNew := context.WithCancel(context.Background())
	defer cancelNew()
	newer, err := r.Scan(ctxNew)
	require.NoError(t, err)

	go func() { _, _ = io.WriteString(pw, "04:aa\n") }()
	select {
	case rd := <-newer:
		assert.Equal(t, "04:aa", rd.SerialNumber)
	case <-older:
		t.Fatal("older scan received the tap")
	case <-time.After(time.Second):
		t.Fatal("no reading delivered")
	}
}

func TestScriptReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
readings:
  - delay: 1ms
    serialNumber: "04:11"
  - text: T-99
    serialNumber: "04:12"
  - error: rf field lost
`), 0o600))

	r, err := LoadScript(path)
	require.NoError(t, err)

	ch, err := r.Scan(context.Background())
	require.NoError(t, err)

	var got []scan.Reading
	for reading := range ch {
		got = append(got, reading)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "04:11", got[0].SerialNumber)
	v, _ := scan.ExtractValue(got[1])
	assert.Equal(t, "T-99", v)
	assert.EqualError(t, got[2].Err, "rf field lost")
}

func TestScriptReader_StartError(t *testing.T) {
	r, err := NewScriptReader(Script{Readings: []ScriptEntry{{StartError: "device busy"}}})
	require.NoError(t, err)

	_, err = r.Scan(context.Background())
	assert.EqualError(t, err, "device busy")
}

func TestNewScriptReader_InvalidDelay(t *testing.T) {
	_, err := NewScriptReader(Script{Readings: []ScriptEntry{{Delay: "soon"}}})
	assert.Error(t, err)
}

func TestParseSpec(t *testing.T) {
	assert.Equal(t, Config{Type: "none"}, ParseSpec(""))
	assert.Equal(t, Config{Type: "none"}, ParseSpec("none"))
	assert.Equal(t, Config{Type: "stdin"}, ParseSpec("stdin"))
	assert.Equal(t, Config{Type: "stdin"}, ParseSpec("-"))
	assert.Equal(t, Config{Type: "script", Path: "taps.yaml"}, ParseSpec("script:taps.yaml"))
	assert.Equal(t, Config{Type: "serial", Path: "/dev/ttyACM0"}, ParseSpec("/dev/ttyACM0"))
}

func TestOpen(t *testing.T) {
	h, err := Open(Config{Type: "none"}, nil)
	require.NoError(t, err)
	assert.False(t, h.Available())
	assert.NoError(t, h.Close())

	h, err = Open(Config{Type: "stdin"}, strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, h.Available())

	_, err = Open(Config{Type: "serial", Path: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Error(t, err)

	_, err = Open(Config{Type: "laser"}, nil)
	assert.Error(t, err)
}
