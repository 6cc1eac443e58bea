package render

import (
	"runtime"
	"sync"
)

// maxWorkers is the pool size when the caller does not choose one.
var maxWorkers = runtime.NumCPU()

// Pool runs jobs on a fixed number of goroutines and collects their results.
type Pool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewPool creates a pool for numJobs jobs. A non-positive numWorkers means
// one worker per CPU; the pool never starts more workers than jobs.
func NewPool[Job any, Result any](numWorkers, numJobs int) *Pool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = maxWorkers
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}
	return &Pool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Workers returns the number of goroutines Start launches.
func (p *Pool[Job, Result]) Workers() int { return p.numWorkers }

// Start launches the workers. fn is called once per submitted job.
func (p *Pool[Job, Result]) Start(fn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- fn(job)
			}
		}()
	}
}

// Submit queues a job.
func (p *Pool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close stops accepting jobs. Results is closed once every queued job is done.
func (p *Pool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel of finished results, in completion order.
func (p *Pool[Job, Result]) Results() <-chan Result {
	return p.results
}

// Map runs fn over jobs on a pool of numWorkers and returns the results in
// the order of jobs.
func Map[Job any, Result any](numWorkers int, jobs []Job, fn func(Job) Result) []Result {
	type indexed struct {
		i   int
		res Result
	}
	p := NewPool[int, indexed](numWorkers, len(jobs))
	p.Start(func(i int) indexed { return indexed{i, fn(jobs[i])} })
	for i := range jobs {
		p.Submit(i)
	}
	p.Close()

	out := make([]Result, len(jobs))
	for r := range p.Results() {
		out[r.i] = r.res
	}
	return out
}
