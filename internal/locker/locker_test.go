package locker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_SameLockForSameAccount(t *testing.T) {
	r := NewRegistry()

	a := r.For("100001")
	b := r.For("100001")
	assert.Same(t, a, b)

	other := r.For("100002")
	assert.NotSame(t, a, other)
}

func TestFor_FirstCreationRaceHasOneWinner(t *testing.T) {
	r := NewRegistry()

	const goroutines = 64
	results := make([]*sync.Mutex, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.For("100001")
		}()
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestFor_MutualExclusion(t *testing.T) {
	r := NewRegistry()

	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lk := r.For("100001")
			lk.Lock()
			counter++
			lk.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
