package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBuffer_SplitsLinesAndKeepsPartial(t *testing.T) {
	b := NewLogBuffer(4)
	_, _ = b.Write([]byte("one\r\ntwo\nthr"))
	assert.Equal(t, []string{"one", "two"}, b.Tail(10))

	_, _ = b.Write([]byte("ee\n"))
	assert.Equal(t, []string{"two", "three"}, b.Tail(2))
}

func TestLogBuffer_Wraps(t *testing.T) {
	b := NewLogBuffer(3)
	for _, line := range []string{"a\n", "b\n", "c\n", "d\n", "e\n"} {
		_, _ = b.Write([]byte(line))
	}
	assert.Equal(t, []string{"c", "d", "e"}, b.Tail(5))
	assert.Equal(t, []string{"e"}, b.Tail(1))
	assert.Nil(t, b.Tail(0))
}

func TestNewLogBuffer_DefaultCapacity(t *testing.T) {
	assert.Equal(t, defaultLogCapacity, NewLogBuffer(0).capacity)
}
