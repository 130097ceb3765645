package ztransport

import (
	"testing"
	"time"
)

func TestPipe_BasicCommunication(t *testing.T) {
	p := New()
	defer p.Close()

	testData := []byte("hello from conn0")
	done := make(chan error, 1)

	go func() {
		buf := make([]byte, 100)
		n, err := p.Conn1().Read(buf)
		if err != nil {
			done <- err
			return
		}
		if string(buf[:n]) != string(testData) {
			done <- errString("data mismatch")
			return
		}
		done <- nil
	}()

	if _, err := p.Conn0().Write(testData); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("read error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}
}

func TestPipe_Bidirectional(t *testing.T) {
	p := New()
	defer p.Close()

	done0 := make(chan string, 1)
	done1 := make(chan string, 1)

	go func() {
		buf := make([]byte, 100)
		n, _ := p.Conn0().Read(buf)
		done0 <- string(buf[:n])
	}()
	go func() {
		buf := make([]byte, 100)
		n, _ := p.Conn1().Read(buf)
		done1 <- string(buf[:n])
	}()

	p.Conn0().Write([]byte("from 0"))
	p.Conn1().Write([]byte("from 1"))

	select {
	case msg := <-done1:
		if msg != "from 0" {
			t.Errorf("conn1 got %q, want %q", msg, "from 0")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for conn1 read")
	}

	select {
	case msg := <-done0:
		if msg != "from 1" {
			t.Errorf("conn0 got %q, want %q", msg, "from 1")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for conn0 read")
	}
}

func TestPipe_CloseIdempotent(t *testing.T) {
	p := New()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPipe_CloseUnblocksReaders(t *testing.T) {
	p := New()

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 100)
		_, err := p.Conn1().Read(buf)
		done <- err
	}()

	p.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from Read after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Read to unblock after Close")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
