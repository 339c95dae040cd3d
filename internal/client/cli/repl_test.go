package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	paths []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Verify(ctx context.Context) error {
	f.calls = append(f.calls, "verify")
	return nil
}
func (f *fakeExec) ResendCode(ctx context.Context) error {
	f.calls = append(f.calls, "resend")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) EditProfile(ctx context.Context) error {
	f.calls = append(f.calls, "profile-edit")
	return nil
}
func (f *fakeExec) Open(ctx context.Context, path string) error {
	f.calls = append(f.calls, "open")
	f.paths = append(f.paths, path)
	return nil
}
func (f *fakeExec) WhoAmI(ctx context.Context) error {
	f.calls = append(f.calls, "whoami")
	return nil
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i], _ = v.(string)
		}
		printed = append(printed, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &printed
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	silence(t)

	input := strings.Join([]string{
		"help",
		"signup",
		"verify",
		"resend",
		"login",
		"help",
		"profile",
		"profile edit",
		"go /admin/users",
		"whoami",
		"logout",
		"foobar",
		"exit",
		"login",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	want := []string{"signup", "verify", "resend", "login", "open", "profile-edit", "open", "whoami", "logout"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, want)
	}
	if strings.Join(exec.paths, ",") != "/profile,/admin/users" {
		t.Fatalf("paths mismatch: %v", exec.paths)
	}
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("open\nquit\n")))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	found := false
	for _, p := range *printed {
		if p == "Usage: open <path>" {
			found = true
		}
	}
	if !found {
		t.Fatalf("usage not printed: %v", *printed)
	}
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	silence(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("whoami")))

	if strings.Join(exec.calls, ",") != "whoami" {
		t.Fatalf("calls: %v", exec.calls)
	}
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	silence(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("login\n")))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
