// Package focus implements the single-task focus timer.
//
// Remaining time while running is always derived from the absolute
// deadline (EndAt) rather than decremented per tick, so late or skipped
// ticks never drift the countdown.
package focus

import (
	"errors"
	"fmt"
	"time"

	"focusbar/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrOutOfTurn         = errors.New("task is not next in order")
)

func Idle() model.TimerState {
	return model.TimerState{Status: model.StatusIdle}
}

// Start makes task the active task. It is valid only from idle and only when
// task is the next startable task (next, as computed by the caller).
func Start(st model.TimerState, task model.Task, next model.Task, hasNext bool, now time.Time) (model.TimerState, error) {
	if st.Status != model.StatusIdle && st.Status != "" {
		return st, ErrInvalidTransition
	}
	if !hasNext || next.ID != task.ID || task.IsCompleted {
		return st, ErrOutOfTurn
	}
	total := task.DurationSec()
	id := task.ID
	end := now.Add(time.Duration(total) * time.Second).UnixMilli()
	return model.TimerState{
		ActiveID:     &id,
		Status:       model.StatusRunning,
		RemainingSec: total,
		EndAt:        &end,
	}, nil
}

// Pause freezes the remaining time and drops the deadline.
func Pause(st model.TimerState, now time.Time) (model.TimerState, error) {
	if st.Status != model.StatusRunning {
		return st, ErrInvalidTransition
	}
	out := cloneState(st)
	if st.EndAt != nil {
		out.RemainingSec = secondsUntil(*st.EndAt, now)
	}
	out.EndAt = nil
	out.Status = model.StatusPaused
	return out, nil
}

// Resume rebuilds the deadline from the frozen remaining time.
func Resume(st model.TimerState, now time.Time) (model.TimerState, error) {
	if st.Status != model.StatusPaused || st.ActiveID == nil {
		return st, ErrInvalidTransition
	}
	out := cloneState(st)
	end := now.Add(time.Duration(st.RemainingSec) * time.Second).UnixMilli()
	out.EndAt = &end
	out.Status = model.StatusRunning
	return out, nil
}

// Finish returns the idle state and the id of the task that must be marked completed.
func Finish(st model.TimerState) (model.TimerState, int64, error) {
	if !st.Locked() || st.ActiveID == nil {
		return st, 0, ErrInvalidTransition
	}
	return Idle(), *st.ActiveID, nil
}

// Remaining derives the seconds left at now. Outside of running it returns the stored value.
func Remaining(st model.TimerState, now time.Time) int {
	if st.Status != model.StatusRunning || st.EndAt == nil {
		if st.RemainingSec < 0 {
			return 0
		}
		return st.RemainingSec
	}
	return secondsUntil(*st.EndAt, now)
}

// Expired reports whether a running timer has reached zero at now.
func Expired(st model.TimerState, now time.Time) bool {
	return st.Status == model.StatusRunning && st.ActiveID != nil && Remaining(st, now) == 0
}

// Normalize repairs state read from storage so the invariants hold.
// exists reports whether a task id is present and incomplete in the collection.
func Normalize(st model.TimerState, exists func(int64) bool, now time.Time) model.TimerState {
	switch st.Status {
	case model.StatusRunning, model.StatusPaused:
	default:
		return Idle()
	}
	if st.ActiveID == nil || !exists(*st.ActiveID) {
		return Idle()
	}
	out := cloneState(st)
	if out.RemainingSec < 0 {
		out.RemainingSec = 0
	}
	switch out.Status {
	case model.StatusRunning:
		if out.EndAt == nil {
			end := now.Add(time.Duration(out.RemainingSec) * time.Second).UnixMilli()
			out.EndAt = &end
		}
		out.RemainingSec = secondsUntil(*out.EndAt, now)
	case model.StatusPaused:
		out.EndAt = nil
	}
	return out
}

// FormatClock renders seconds as MM:SS; minutes are not capped.
func FormatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

func secondsUntil(endAtMs int64, now time.Time) int {
	ms := endAtMs - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

func cloneState(st model.TimerState) model.TimerState {
	out := st
	if st.ActiveID != nil {
		v := *st.ActiveID
		out.ActiveID = &v
	}
	if st.EndAt != nil {
		v := *st.EndAt
		out.EndAt = &v
	}
	return out
}
