package sales

import (
	"hash/fnv"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripeOf(sessionID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return h.Sum32() % sessionLockStripes
}

func TestSessionLocks_SerialisesSameSession(t *testing.T) {
	locks := NewSessionLocks()

	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("till-1")
			defer unlock()
			n := count
			time.Sleep(time.Microsecond)
			count = n + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, count, "read-modify-write under the lock loses no update")
}

func TestSessionLocks_BlocksUntilUnlocked(t *testing.T) {
	locks := NewSessionLocks()
	unlock := locks.Lock("till-1")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("till-1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after unlock")
	}
}

func TestSessionLocks_OtherStripeNotBlocked(t *testing.T) {
	other := ""
	for i := 2; i < 1000; i++ {
		id := "till-" + strconv.Itoa(i)
		if stripeOf(id) != stripeOf("till-1") {
			other = id
			break
		}
	}
	require.NotEmpty(t, other)

	locks := NewSessionLocks()
	unlock := locks.Lock("till-1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.Lock(other)()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session on another stripe was blocked")
	}
}
