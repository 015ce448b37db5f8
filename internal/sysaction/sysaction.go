package sysaction

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/cheru-app/cherud/internal/entry"
)

// Scheme prefixes system-action targets so the launch gate can route them
// to the action table instead of the filesystem checks.
const Scheme = "cheru:"

// Action couples a launcher entry with the OS command behind it.
type Action struct {
	ID          string // launch target, e.g. "cheru:sleep"
	Name        string
	Description string
	Argv        []string
}

var linuxActions = []Action{
	{ID: Scheme + "lock", Name: "Lock Screen", Description: "Lock the current session", Argv: []string{"loginctl", "lock-session"}},
	{ID: Scheme + "sleep", Name: "Sleep", Description: "Suspend the system", Argv: []string{"systemctl", "suspend"}},
	{ID: Scheme + "restart", Name: "Restart", Description: "Reboot the system", Argv: []string{"systemctl", "reboot"}},
	{ID: Scheme + "shutdown", Name: "Shut Down", Description: "Power off the system", Argv: []string{"systemctl", "poweroff"}},
}

var darwinActions = []Action{
	{ID: Scheme + "lock", Name: "Lock Screen", Description: "Put the display to sleep", Argv: []string{"pmset", "displaysleepnow"}},
	{ID: Scheme + "sleep", Name: "Sleep", Description: "Put the system to sleep", Argv: []string{"pmset", "sleepnow"}},
	{ID: Scheme + "restart", Name: "Restart", Description: "Restart the system", Argv: []string{"osascript", "-e", `tell app "System Events" to restart`}},
	{ID: Scheme + "shutdown", Name: "Shut Down", Description: "Shut down the system", Argv: []string{"osascript", "-e", `tell app "System Events" to shut down`}},
}

// table returns the static action set for one platform; empty on
// unsupported platforms.
func table(goos string) []Action {
	switch goos {
	case "linux":
		return linuxActions
	case "darwin":
		return darwinActions
	}
	return nil
}

// Index builds the system-action index for the host platform, with the
// same sort and dedup discipline as every other index.
func Index() entry.Index {
	return IndexFor(runtime.GOOS)
}

// IndexFor builds the action index for the given platform.
func IndexFor(goos string) entry.Index {
	b := entry.NewBuilder(0)
	for _, a := range table(goos) {
		b.Add(a.Name, entry.Entry{
			Name:        a.Name,
			Target:      a.ID,
			Description: a.Description,
			Kind:        entry.SystemAction,
		})
	}
	return b.Index()
}

// Lookup resolves an action id (with or without the scheme prefix) for the
// host platform.
func Lookup(id string) (Action, bool) {
	return lookupFor(runtime.GOOS, id)
}

func lookupFor(goos, id string) (Action, bool) {
	if !strings.HasPrefix(id, Scheme) {
		return Action{}, false
	}
	for _, a := range table(goos) {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// Run dispatches the action's OS command. The command table is fixed at
// build time, so no validation beyond the Lookup is needed.
func Run(a Action) error {
	if len(a.Argv) == 0 {
		return fmt.Errorf("action %s has no command", a.ID)
	}
	return exec.Command(a.Argv[0], a.Argv[1:]...).Start()
}
