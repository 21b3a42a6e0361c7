package tool

import (
	"os/exec"
	"sync"
	"syscall"
	"testing"
	"time"
)

// startSleeper spawns a long sleep in its own process group and returns
// the command. Callers must Wait or kill it.
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start sleep: %v", err)
	}
	return cmd
}

func TestProcessGuardTerminateKillsProcess(t *testing.T) {
	cmd := startSleeper(t)
	g := NewProcessGuard(cmd.Process.Pid, "sleep")

	if err := g.Terminate(); err != nil {
		t.Fatalf("Terminate returned error: %v", err)
	}
	if !g.Terminated() {
		t.Error("guard should report terminated after Terminate")
	}

	// The process must actually be gone: Wait returns promptly with a
	// signal-death error instead of blocking for the full sleep.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected signal-death error from Wait")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process still running after Terminate")
	}
}

func TestProcessGuardTerminateIsIdempotent(t *testing.T) {
	cmd := startSleeper(t)
	g := NewProcessGuard(cmd.Process.Pid, "sleep")

	if err := g.Terminate(); err != nil {
		t.Fatalf("first Terminate returned error: %v", err)
	}
	if err := g.Terminate(); err != nil {
		t.Errorf("repeat Terminate must be a no-op, got error: %v", err)
	}
	if err := g.Terminate(); err != nil {
		t.Errorf("third Terminate must be a no-op, got error: %v", err)
	}
	_ = cmd.Wait()
}

func TestProcessGuardTerminateAfterNaturalExit(t *testing.T) {
	cmd := exec.Command("true")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start true: %v", err)
	}
	g := NewProcessGuard(cmd.Process.Pid, "true")
	if err := cmd.Wait(); err != nil {
		t.Fatalf("true exited with error: %v", err)
	}
	g.MarkExited()

	if !g.Terminated() {
		t.Error("guard should report terminated after MarkExited")
	}
	if err := g.Terminate(); err != nil {
		t.Errorf("Terminate after MarkExited must be a no-op, got: %v", err)
	}
}

func TestProcessGuardTerminateExitedProcessIsNotAnError(t *testing.T) {
	cmd := exec.Command("true")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start true: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("true exited with error: %v", err)
	}

	// Guard never saw the exit; terminating the reaped process must
	// still succeed because an already-exited process is not an error.
	g := NewProcessGuard(pid, "true")
	if err := g.Terminate(); err != nil {
		t.Errorf("Terminate on exited process returned error: %v", err)
	}
}

func TestProcessGuardReleaseBehavesLikeTerminate(t *testing.T) {
	cmd := startSleeper(t)
	g := NewProcessGuard(cmd.Process.Pid, "sleep")

	g.Release()
	if !g.Terminated() {
		t.Error("guard should report terminated after Release")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process still running after Release")
	}
}

func TestProcessGuardNilReceiver(t *testing.T) {
	var g *ProcessGuard
	if err := g.Terminate(); err != nil {
		t.Errorf("nil guard Terminate should return nil, got: %v", err)
	}
	g.Release()
}

func TestProcessGuardConcurrentTerminate(t *testing.T) {
	cmd := startSleeper(t)
	g := NewProcessGuard(cmd.Process.Pid, "sleep")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- g.Terminate()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Terminate returned error: %v", err)
		}
	}
	if !g.Terminated() {
		t.Error("guard should report terminated")
	}
	_ = cmd.Wait()
}

func TestProcessGuardAccessors(t *testing.T) {
	g := NewProcessGuard(1234, "indexer")
	if g.PID() != 1234 {
		t.Errorf("PID() = %d, want 1234", g.PID())
	}
	if g.Tool() != "indexer" {
		t.Errorf("Tool() = %q, want %q", g.Tool(), "indexer")
	}
	if g.Terminated() {
		t.Error("fresh guard must not report terminated")
	}
}
