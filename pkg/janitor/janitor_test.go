package janitor

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeMaintainer struct {
	rotateCalls int
	purgeCalls  int
	rotated     bool
	rotateErr   error
	purgeErr    error
}

func (f *fakeMaintainer) RotateIfOversized() (bool, error) {
	f.rotateCalls++
	return f.rotated, f.rotateErr
}

func (f *fakeMaintainer) PurgeOrphanedMedia() (int, error) {
	f.purgeCalls++
	return 0, f.purgeErr
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	if _, err := New(&fakeMaintainer{}, "not a cron spec", zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestNewDefaultsSchedule(t *testing.T) {
	j, err := New(&fakeMaintainer{}, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if j.schedule != DefaultSchedule {
		t.Errorf("schedule: got %q, want %q", j.schedule, DefaultSchedule)
	}
}

func TestDefaultScheduleDueAtTopOfHour(t *testing.T) {
	j, err := New(&fakeMaintainer{}, "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	due, err := j.gron.IsDue(j.schedule, time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue: %v", err)
	}
	if !due {
		t.Error("top of the hour should be due")
	}

	due, err = j.gron.IsDue(j.schedule, time.Date(2026, time.January, 1, 12, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue: %v", err)
	}
	if due {
		t.Error("half past should not be due")
	}
}

func TestSweepRunsBothJobs(t *testing.T) {
	m := &fakeMaintainer{rotated: true}
	j, err := New(m, DefaultSchedule, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	j.Sweep()
	if m.rotateCalls != 1 || m.purgeCalls != 1 {
		t.Errorf("calls: rotate=%d purge=%d", m.rotateCalls, m.purgeCalls)
	}
}

func TestSweepRotationFailureStillPurges(t *testing.T) {
	m := &fakeMaintainer{rotateErr: errors.New("disk gone")}
	j, err := New(m, DefaultSchedule, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	j.Sweep()
	if m.purgeCalls != 1 {
		t.Error("purge should run even when rotation fails")
	}
}
