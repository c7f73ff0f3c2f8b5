package builtins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEmptyRuntimeList is returned when the node binary printed no names.
var ErrEmptyRuntimeList = errors.New("node printed no builtin modules")

const builtinsScript = `require('module').builtinModules.join('\n')`

// FromRuntime asks the node binary for its module.builtinModules list.
func FromRuntime(ctx context.Context, nodeBinary string) (*Registry, error) {
	if nodeBinary == "" {
		nodeBinary = "node"
	}
	path, err := exec.LookPath(nodeBinary)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", nodeBinary, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-p", builtinsScript)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s -p: %w: %s", nodeBinary, err, msg)
		}
		return nil, fmt.Errorf("%s -p: %w", nodeBinary, err)
	}
	return parseList(stdout.String())
}

func parseList(out string) (*Registry, error) {
	names := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	reg := New(names...)
	if reg.Len() == 0 {
		return nil, ErrEmptyRuntimeList
	}
	return reg, nil
}
