package exiftool

import "os/exec"

// exitCodeFromError extracts a process exit code from the error returned
// by (*os/exec.Cmd).Wait, mirroring integration/process's exit-status
// unwrapping. ok is false when err is not an *exec.ExitError (e.g. Wait
// failed for a reason other than the process's exit status); a process
// killed by a signal yields ok true with code -1.
func exitCodeFromError(err error) (code int, ok bool) {
	exitErr, isExitErr := err.(*exec.ExitError)
	if !isExitErr {
		return 0, false
	}
	return exitErr.ExitCode(), true
}
