// Package prof wraps runtime profilers for lint runs.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options name the output files; an empty path disables that profiler.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

func (o Options) empty() bool { return o.CPU == "" && o.Heap == "" && o.Trace == "" }

// Session is an active set of profilers. Stop is idempotent.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	stopped   bool
}

// Start enables the profilers named in opts. On error nothing stays running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.empty() {
		return s, nil
	}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func (s *Session) stopTrace() error {
	if s.traceFile == nil {
		return nil
	}
	trace.Stop()
	err := s.traceFile.Close()
	s.traceFile = nil
	return err
}

// Stop flushes every profiler and writes the heap profile last.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true
	errs := []error{s.stopTrace(), s.stopCPU()}
	if s.opts.Heap != "" {
		errs = append(errs, writeHeap(s.opts.Heap))
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
