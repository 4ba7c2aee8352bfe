package session

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Sweeper struct {
	store *Store
	idle  time.Duration
	cron  *cron.Cron
}

func NewSweeper(store *Store, idle time.Duration) *Sweeper {
	return &Sweeper{
		store: store,
		idle:  idle,
		cron:  cron.New(cron.WithSeconds()),
	}
}

// Start schedules the idle sweep on spec (six-field cron syntax).
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return err
	}

	log.Printf("Session sweeper started (spec=%q idle=%s)", spec, s.idle)
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	if n := s.store.Sweep(s.idle); n > 0 {
		log.Printf("Session sweep removed %d idle sessions (%d active)", n, s.store.Len())
	}
}
