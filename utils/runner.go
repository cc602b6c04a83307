package utils

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts external tool invocation so pipelines can be
// exercised without dx or bcftools installed.
type Runner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host, streaming output for Run and
// capturing stdout for Output.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) error {
	fmt.Printf("Running: %s %s ...\n", name, strings.Join(args, " "))
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (ExecRunner) Output(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// CheckDeps verifies the named tools are on PATH before any work starts.
func CheckDeps(tools ...string) error {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH", tool)
		}
	}
	return nil
}
