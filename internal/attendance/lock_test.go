package attendance

import (
	"sync"
	"testing"
)

func TestKeyedLockSerializesPerKey(t *testing.T) {
	l := NewKeyedLock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(sessionKey("W-1", "2026-03-10"))
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			counter++

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max holders = %d, want 1", maxSeen)
	}
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if n := l.size(); n != 0 {
		t.Errorf("lock table has %d entries after release, want 0", n)
	}
}

func TestKeyedLockIndependentKeys(t *testing.T) {
	l := NewKeyedLock()

	unlockA := l.Lock(sessionKey("W-1", "2026-03-10"))
	done := make(chan struct{})
	go func() {
		unlock := l.Lock(sessionKey("W-2", "2026-03-10"))
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}
