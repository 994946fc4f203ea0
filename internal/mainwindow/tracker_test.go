package mainwindow

import (
	"testing"

	"github.com/yourusername/tiler/internal/types"
)

func ptr(w types.WindowID) *types.WindowID { return &w }

func TestTracker(t *testing.T) {
	w1 := types.NewWindowID(1, 1)
	w2 := types.NewWindowID(1, 2)
	w3 := types.NewWindowID(2, 1)

	type step struct {
		ev         Event
		wantRaised *types.WindowID
	}
	tests := []struct {
		name     string
		steps    []step
		wantMain *types.WindowID
	}{
		{
			name: "launch frontmost",
			steps: []step{
				{AppLaunched{Pid: 1, Frontmost: true, MainWindow: ptr(w1)}, nil},
			},
			wantMain: &w1,
		},
		{
			name: "main window change on frontmost app raises",
			steps: []step{
				{AppGloballyActivated{Pid: 1}, nil},
				{MainWindowChanged{Pid: 1, Window: ptr(w1)}, &w1},
				{MainWindowChanged{Pid: 1, Window: ptr(w1)}, nil},
				{MainWindowChanged{Pid: 1, Window: ptr(w2)}, &w2},
			},
			wantMain: &w2,
		},
		{
			name: "quiet change does not raise",
			steps: []step{
				{AppGloballyActivated{Pid: 1}, nil},
				{MainWindowChanged{Pid: 1, Window: ptr(w1), Quiet: true}, nil},
			},
			wantMain: &w1,
		},
		{
			name: "background app change does not raise",
			steps: []step{
				{AppGloballyActivated{Pid: 1}, nil},
				{MainWindowChanged{Pid: 2, Window: ptr(w3)}, nil},
			},
		},
		{
			name: "activation raises known main window",
			steps: []step{
				{MainWindowChanged{Pid: 2, Window: ptr(w3)}, nil},
				{AppGloballyActivated{Pid: 2}, &w3},
			},
			wantMain: &w3,
		},
		{
			name: "destroyed main window clears it",
			steps: []step{
				{AppGloballyActivated{Pid: 1}, nil},
				{MainWindowChanged{Pid: 1, Window: ptr(w1)}, &w1},
				{WindowDestroyed{Window: w2}, nil},
				{WindowDestroyed{Window: w1}, nil},
			},
		},
		{
			name: "deactivation clears frontmost",
			steps: []step{
				{AppGloballyActivated{Pid: 1}, nil},
				{MainWindowChanged{Pid: 1, Window: ptr(w1)}, &w1},
				{AppGloballyDeactivated{Pid: 1}, nil},
			},
		},
		{
			name: "termination forgets app",
			steps: []step{
				{AppLaunched{Pid: 1, Frontmost: true, MainWindow: ptr(w1)}, nil},
				{AppTerminated{Pid: 1}, nil},
				{AppGloballyActivated{Pid: 1}, nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for i, s := range tt.steps {
				got, ok := tr.HandleEvent(s.ev)
				switch {
				case s.wantRaised == nil && ok:
					t.Errorf("step %d: raised %v, want none", i, got)
				case s.wantRaised != nil && (!ok || got != *s.wantRaised):
					t.Errorf("step %d: raised = %v, %v, want %v", i, got, ok, *s.wantRaised)
				}
			}
			got, ok := tr.MainWindow()
			switch {
			case tt.wantMain == nil && ok:
				t.Errorf("MainWindow() = %v, want none", got)
			case tt.wantMain != nil && (!ok || got != *tt.wantMain):
				t.Errorf("MainWindow() = %v, %v, want %v", got, ok, *tt.wantMain)
			}
		})
	}
}

func TestFrontmostPid(t *testing.T) {
	tr := New()
	if _, ok := tr.FrontmostPid(); ok {
		t.Error("FrontmostPid() ok on empty tracker")
	}
	tr.HandleEvent(AppGloballyActivated{Pid: 7})
	if pid, ok := tr.FrontmostPid(); !ok || pid != 7 {
		t.Errorf("FrontmostPid() = %d, %v, want 7, true", pid, ok)
	}
}
