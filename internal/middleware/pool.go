package middleware

import (
	"context"

	"frontrow/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"
)

// WorkerPool caps the number of handlers executing at once.
type WorkerPool struct {
	sem  *semaphore.Weighted
	size int64
}

// NewWorkerPool creates a pool with size slots.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Size returns the slot count.
func (p *WorkerPool) Size() int {
	return int(p.size)
}

// Acquire waits for a slot until ctx is done.
func (p *WorkerPool) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	PoolInFlight.Inc()
	return func() {
		PoolInFlight.Dec()
		p.sem.Release(1)
	}, nil
}

// Middleware runs the rest of the chain inside a slot and answers 503 when
// none frees up before the request deadline.
func (p *WorkerPool) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		release, err := p.Acquire(c.UserContext())
		if err != nil {
			PoolRejected.Inc()
			return models.Respond(c, models.NewUnavailableError("Server is busy, try again later."))
		}
		defer release()
		return c.Next()
	}
}
