package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool fans queued tasks out to a fixed number of workers running
// under one tomb.
type WorkerPool struct {
	n     int            // number of workers
	tasks chan any       // queued tasks
	work  WorkerFunction // do work method
}

func NewWorkerPool(size uint) WorkerPool {
	return WorkerPool{
		n:     int(size),
		tasks: make(chan any, TASK_CHAN_SIZE),
	}
}

// Setup starts the pool's workers. Workers run until the tomb dies or
// the work function returns an error.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	pool.work = work
	for i := 0; i < pool.n; i++ {
		id := i
		t.Go(func() error {
			return pool.worker(t, id)
		})
	}
}

// AddTask queues a task for the next free worker. Blocks when the queue
// is full, applying backpressure to the producer.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Workers wait on tasks in the task queue and action them. Any error
// returned from the work function is fatal for the whole pool.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := pool.work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
