package reactor

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"
)

// runLoopTest spawns main as the loop's initial task, runs the loop to
// completion, and checks the wall-clock runtime against a tolerance.
func runLoopTest(t *testing.T, wantErr bool, wantRuntime time.Duration, main func(ctx context.Context, loop *EventLoop) error) {
	loop, err := NewWithMaxFD(256)
	if err != nil {
		t.Fatalf("NewWithMaxFD: %v", err)
	}
	defer loop.Close()

	start := time.Now()
	var mainErr error
	SpawnTask(context.Background(), func(ctx context.Context) (Void, error) {
		mainErr = main(ctx, loop)
		return Void{}, nil
	})

	if err := loop.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	elapsed := time.Since(start)

	if wantRuntime > 0 {
		tolerance := wantRuntime.Seconds() / 10
		if math.Abs(elapsed.Seconds()-wantRuntime.Seconds()) > tolerance {
			t.Errorf("expected runtime %s, got %s", wantRuntime, elapsed)
		}
	}
	if (mainErr != nil) != wantErr {
		t.Errorf("expected error %v, got: %v", wantErr, mainErr)
	}
}

func TestSleepOrdering(t *testing.T) {
	runLoopTest(t, false, 30*time.Millisecond, func(ctx context.Context, loop *EventLoop) error {
		var order []int
		record := func(n int) func() { return func() { order = append(order, n) } }

		done := NewFuture[struct{}]()
		loop.ScheduleFunc(func() { record(30)(); done.SetResult(struct{}{}, nil) }, FromStd(30*time.Millisecond))
		loop.ScheduleFunc(record(10), FromStd(10*time.Millisecond))
		loop.ScheduleFunc(record(20), FromStd(20*time.Millisecond))

		if _, err := done.Await(ctx); err != nil {
			return err
		}

		want := []int{10, 20, 30}
		if len(order) != len(want) {
			t.Fatalf("got order %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("got order %v, want %v", order, want)
				break
			}
		}
		return nil
	})
}

func TestReadinessPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer w.Close()
	defer r.Close()

	runLoopTest(t, false, 0, func(ctx context.Context, loop *EventLoop) error {
		fd := int(r.Fd())
		if err := loop.AddFD(fd, OpRead); err != nil {
			return err
		}

		go func() {
			time.Sleep(5 * time.Millisecond)
			_, _ = w.Write([]byte("ok"))
		}()

		if _, err := loop.AwaitRead(fd).Await(ctx); err != nil {
			return err
		}
		buf := make([]byte, 2)
		n, err := r.Read(buf)
		if err != nil {
			return err
		}
		if string(buf[:n]) != "ok" {
			t.Errorf("got %q, want %q", buf[:n], "ok")
		}
		return loop.DelFD(fd)
	})
}

func TestTwoWaitersOneWake(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer w.Close()
	defer r.Close()

	runLoopTest(t, false, 0, func(ctx context.Context, loop *EventLoop) error {
		fd := int(r.Fd())
		if err := loop.AddFD(fd, OpRead); err != nil {
			return err
		}

		var log []string

		spawnWaiter := func(name string) {
			SpawnTask(ctx, func(ctx context.Context) (Void, error) {
				if _, err := loop.AwaitRead(fd).Await(ctx); err != nil {
					return Void{}, err
				}
				log = append(log, name)
				return Void{}, nil
			})
		}
		spawnWaiter("A")
		spawnWaiter("B")

		// Give both tasks a chance to register on fd before it becomes
		// readable, so both are queued waiters when the single write wakes
		// them in FIFO order.
		if _, err := loop.SleepFor(FromStd(5 * time.Millisecond)).Await(ctx); err != nil {
			return err
		}
		if _, err := w.Write([]byte("x")); err != nil {
			return err
		}
		if _, err := loop.SleepFor(FromStd(20 * time.Millisecond)).Await(ctx); err != nil {
			return err
		}

		if len(log) != 2 || log[0] != "A" || log[1] != "B" {
			t.Errorf("got log %v, want [A B]", log)
		}
		return loop.DelFD(fd)
	})
}

func TestTaskChaining(t *testing.T) {
	runLoopTest(t, false, 5*time.Millisecond, func(ctx context.Context, loop *EventLoop) error {
		child := SpawnTask(ctx, func(ctx context.Context) (int, error) {
			if _, err := loop.SleepFor(FromStd(5 * time.Millisecond)).Await(ctx); err != nil {
				return 0, err
			}
			return 42, nil
		})

		result, err := child.Await(ctx)
		if err != nil {
			return err
		}
		if result != 42 {
			t.Errorf("got %d, want 42", result)
		}
		return nil
	})
}

var errBoom = errors.New("boom")

func TestExceptionPropagation(t *testing.T) {
	runLoopTest(t, true, 0, func(ctx context.Context, loop *EventLoop) error {
		child := SpawnTask(ctx, func(ctx context.Context) (int, error) {
			return 0, errBoom
		})

		_, err := child.Await(ctx)
		if !errors.Is(err, errBoom) {
			t.Errorf("parent await: got %v, want %v", err, errBoom)
		}

		_, err2 := child.Await(ctx)
		if !errors.Is(err2, errBoom) {
			t.Errorf("second await: got %v, want %v", err2, errBoom)
		}
		return err
	})
}

func TestBadFdNeverSuspends(t *testing.T) {
	loop, err := NewWithMaxFD(64)
	if err != nil {
		t.Fatalf("NewWithMaxFD: %v", err)
	}
	defer loop.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(w.Fd())
	if err := loop.AddFD(fd, OpWrite); err != nil {
		t.Fatalf("AddFD: %v", err)
	}

	_, err = loop.AwaitRead(fd).Result()
	if !errors.Is(err, ErrFdNotReadable) {
		t.Errorf("got %v, want %v", err, ErrFdNotReadable)
	}

	if err := loop.DelFD(fd); err != nil {
		t.Fatalf("DelFD: %v", err)
	}
}

func TestMultipleEventLoops(t *testing.T) {
	loop, err := NewWithMaxFD(16)
	if err != nil {
		t.Fatalf("NewWithMaxFD: %v", err)
	}

	_, err = NewWithMaxFD(16)
	if !errors.Is(err, ErrMultipleEventLoops) {
		t.Errorf("got %v, want %v", err, ErrMultipleEventLoops)
	}

	if err := loop.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loop2, err := NewWithMaxFD(16)
	if err != nil {
		t.Fatalf("second NewWithMaxFD after Close: %v", err)
	}
	_ = loop2.Close()
}

func TestRunReturnsWhenIdle(t *testing.T) {
	loop, err := NewWithMaxFD(16)
	if err != nil {
		t.Fatalf("NewWithMaxFD: %v", err)
	}
	defer loop.Close()

	if err := loop.Run(); err != nil {
		t.Fatalf("Run on empty loop: %v", err)
	}
}

func TestNewWithMaxFDRejectsZero(t *testing.T) {
	if _, err := NewWithMaxFD(0); !errors.Is(err, ErrInvalidMaxFD) {
		t.Errorf("got %v, want %v", err, ErrInvalidMaxFD)
	}
}

func TestZeroTaskAwaitIsBrokenPromise(t *testing.T) {
	var task *Task[int]
	if _, err := task.Await(context.Background()); !errors.Is(err, ErrBrokenPromise) {
		t.Errorf("nil *Task: got %v, want %v", err, ErrBrokenPromise)
	}

	var zero Task[int]
	if _, err := zero.Await(context.Background()); !errors.Is(err, ErrBrokenPromise) {
		t.Errorf("zero Task value: got %v, want %v", err, ErrBrokenPromise)
	}
}

func TestClosedLoopRejectsFDOps(t *testing.T) {
	loop, err := NewWithMaxFD(16)
	if err != nil {
		t.Fatalf("NewWithMaxFD: %v", err)
	}
	if err := loop.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := loop.AddFD(3, OpRead); !errors.Is(err, ErrBadSelectorAccess) {
		t.Errorf("AddFD after Close: got %v, want %v", err, ErrBadSelectorAccess)
	}
	if err := loop.DelFD(3); !errors.Is(err, ErrBadSelectorAccess) {
		t.Errorf("DelFD after Close: got %v, want %v", err, ErrBadSelectorAccess)
	}
}
