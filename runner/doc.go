// Package runner executes external commands without shell interpretation.
//
// Core types:
//   - CommandRunner: Interface for executing commands (with mock for testing)
//   - ExecRunner: os/exec implementation that inherits the process environment
//   - Result: Captured stdout, stderr and exit code of a finished command
//   - DispatchError: The command could not be started at all
//
// A non-zero exit status is not an error: the Result carries the exit code
// and the captured output. Only a failure to launch the command (binary
// missing, not executable, bad working directory) is returned as an error.
//
// Example usage:
//
//	r := runner.NewExecRunner()
//	res, err := r.Run(ctx, "/path/to/repo", "claude", "-y", "-p", prompt)
//	if errors.Is(err, runner.ErrDispatch) {
//	    // command never started
//	}
//	fmt.Println(res.ExitCode, res.Combined())
package runner
