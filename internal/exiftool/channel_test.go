package exiftool

import (
	"io"
	"testing"
	"time"
)

func TestParseAwaitMarker(t *testing.T) {
	cases := []struct {
		line   string
		wantID int32
		wantOK bool
	}{
		{"{await0000000001}\n", 1, true},
		{"{await2000000000}\n", 2_000_000_000, true},
		{"not a marker\n", 0, false},
		{"{await12345}\n", 0, false}, // wrong digit count
		{"{ready}\n", 0, false},
	}

	for _, c := range cases {
		id, ok := parseAwaitMarker(c.line)
		if ok != c.wantOK || (ok && id != c.wantID) {
			t.Errorf("parseAwaitMarker(%q) = (%d, %v), want (%d, %v)", c.line, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestNormalizeLineEnding(t *testing.T) {
	if got := normalizeLineEnding("foo\r\n"); got != "foo\n" {
		t.Errorf("normalizeLineEnding(CRLF) = %q, want %q", got, "foo\n")
	}
	if got := normalizeLineEnding("foo\n"); got != "foo\n" {
		t.Errorf("normalizeLineEnding(LF) = %q, want %q", got, "foo\n")
	}
}

func TestChannelReader_SingleFrame(t *testing.T) {
	r, w := io.Pipe()

	var gotAwait int32
	var gotReady []byte
	awaitCh := make(chan struct{})
	readyCh := make(chan struct{})

	cr := newChannelReader(r,
		func(id int32) { gotAwait = id; close(awaitCh) },
		func(buf []byte) { gotReady = buf; close(readyCh) },
		func(err error) {},
	)
	go cr.run()

	go func() {
		io.WriteString(w, "{await0000000007}\n")
		io.WriteString(w, "some output line\n")
		io.WriteString(w, "more output{ready}\n")
	}()

	select {
	case <-awaitCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onAwait")
	}
	if gotAwait != 7 {
		t.Errorf("gotAwait = %d, want 7", gotAwait)
	}

	select {
	case <-readyCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onReady")
	}
	want := "some output line\nmore output"
	if string(gotReady) != want {
		t.Errorf("gotReady = %q, want %q", gotReady, want)
	}

	w.Close()
}

func TestChannelReader_DiscardsLinesBeforeAwait(t *testing.T) {
	r, w := io.Pipe()

	awaitCh := make(chan int32, 1)
	cr := newChannelReader(r,
		func(id int32) { awaitCh <- id },
		func(buf []byte) {},
		func(err error) {},
	)
	go cr.run()

	go func() {
		io.WriteString(w, "stray startup banner\n")
		io.WriteString(w, "{await0000000003}\n")
	}()

	select {
	case id := <-awaitCh:
		if id != 3 {
			t.Errorf("id = %d, want 3", id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	w.Close()
}

func TestChannelReader_CRLF(t *testing.T) {
	r, w := io.Pipe()

	readyCh := make(chan []byte, 1)
	cr := newChannelReader(r,
		func(id int32) {},
		func(buf []byte) { readyCh <- buf },
		func(err error) {},
	)
	go cr.run()

	go func() {
		io.WriteString(w, "{await0000000001}\r\n")
		io.WriteString(w, "line one\r\n")
		io.WriteString(w, "{ready}\r\n")
	}()

	select {
	case buf := <-readyCh:
		if string(buf) != "line one\n" {
			t.Errorf("buf = %q, want %q", buf, "line one\n")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	w.Close()
}
