package host

import (
	"testing"
	"time"
)

func TestTrySendReturnsFalseWhenChannelIsFull(t *testing.T) {
	c := make(chan int, 1)
	c <- 1

	if TrySend(c, 2) {
		t.Fatalf("TrySend reported success on a full channel")
	}
}

func TestTimeoutReceiveTimesOutWhenNothingIsSent(t *testing.T) {
	c := make(chan int)

	_, ok := TimeoutReceive(c, 5*time.Millisecond)
	if ok {
		t.Fatalf("TimeoutReceive reported ok with nothing sent")
	}
}
