package uatypes

import (
	"bytes"
	"testing"
)

func TestBufferWriteRead(t *testing.T) {
	b := NewBuffer()
	b.Write([]byte{1, 2, 3})
	b.Write([]byte{4, 5})

	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}

	got, err := b.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("Read() = %v, want [1 2 3]", got)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() after read = %d, want 2", b.Len())
	}
}

func TestBufferReadShort(t *testing.T) {
	b := NewBufferFrom([]byte{1, 2})
	if _, err := b.Read(3); err != ErrShortRead {
		t.Fatalf("Read(3) err = %v, want ErrShortRead", err)
	}
}

func TestBufferMove(t *testing.T) {
	src := NewBufferFrom([]byte{1, 2, 3, 4})
	dst := NewBuffer()
	dst.Write([]byte{0})

	if err := dst.Move(src, 2); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), []byte{0, 1, 2}) {
		t.Fatalf("dst = %v, want [0 1 2]", dst.Bytes())
	}
	if !bytes.Equal(src.Bytes(), []byte{3, 4}) {
		t.Fatalf("src = %v, want [3 4]", src.Bytes())
	}
}

func TestBufferMoveShort(t *testing.T) {
	src := NewBufferFrom([]byte{1})
	dst := NewBuffer()
	if err := dst.Move(src, 5); err != ErrShortRead {
		t.Fatalf("Move err = %v, want ErrShortRead", err)
	}
}

func TestBufferPeekDoesNotConsume(t *testing.T) {
	b := NewBufferFrom([]byte{9, 8, 7})
	got, err := b.Peek(2)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !bytes.Equal(got, []byte{9, 8}) {
		t.Fatalf("Peek() = %v, want [9 8]", got)
	}
	if b.Len() != 3 {
		t.Fatalf("Len() after Peek = %d, want 3", b.Len())
	}
}
