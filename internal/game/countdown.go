package game

import "time"

// countdown is an owned, cancelable periodic task.
type countdown struct {
	stop chan struct{}
	done chan struct{}
}

func startCountdown(interval time.Duration, tick func(stop <-chan struct{})) *countdown {
	c := &countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.run(interval, tick)
	return c
}

func (c *countdown) run(interval time.Duration, tick func(stop <-chan struct{})) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			tick(c.stop)
		}
	}
}

// cancel stops the task and waits for it to exit. The caller must not hold
// any lock the tick function takes.
func (c *countdown) cancel() {
	close(c.stop)
	<-c.done
}
