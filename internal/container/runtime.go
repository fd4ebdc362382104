// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs external tools, either directly on the host through
// Runner or inside a docker/podman container through Runtime.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	Docker = "docker"
	Podman = "podman"
)

var (
	// ErrNoRuntime means neither docker nor podman answered.
	ErrNoRuntime = errors.New("no container runtime available")

	// ErrImageMissing means the image is not present locally and pulling
	// was not allowed.
	ErrImageMissing = errors.New("container image not present")
)

// Runtime runs one-shot containers.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// EnsureImage verifies the image is present locally, pulling it when
	// the runtime was detected with Pull set.
	EnsureImage(ctx context.Context, image string) error

	// Run starts a throwaway container with no network, appends args to the
	// image entrypoint, and wires stdin and stdout. The container dies with
	// ctx.
	Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error
}

// Executor is a Runner that can also stream a command's stdin and stdout.
// ExecRunner implements it.
type Executor interface {
	Runner
	Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) (stderr []byte, err error)
}

// RuntimeOptions controls runtime detection.
type RuntimeOptions struct {
	// Prefer is "docker", "podman", or empty for docker first.
	Prefer string

	// Pull fetches images that are missing locally.
	Pull bool
}

// cli drives a container binary. Docker and podman differ only in the name
// and the image-check subcommand.
type cli struct {
	name       string
	imageCheck []string
	exec       Executor
	pull       bool
}

func newCLI(name string, exec Executor, pull bool) (*cli, error) {
	c := &cli{name: name, exec: exec, pull: pull}
	switch name {
	case Docker:
		c.imageCheck = []string{"image", "inspect"}
	case Podman:
		c.imageCheck = []string{"image", "exists"}
	default:
		return nil, fmt.Errorf("unknown container runtime %q: use %s or %s", name, Docker, Podman)
	}
	return c, nil
}

func (c *cli) Name() string { return c.name }

func (c *cli) available(ctx context.Context) bool {
	_, _, err := c.exec.Run(ctx, c.name, "info")
	return err == nil
}

func (c *cli) EnsureImage(ctx context.Context, image string) error {
	args := append(append([]string{}, c.imageCheck...), image)
	if _, _, err := c.exec.Run(ctx, c.name, args...); err == nil {
		return nil
	}
	if !c.pull {
		return fmt.Errorf("%s: %s: %w", c.name, image, ErrImageMissing)
	}
	if _, stderr, err := c.exec.Run(ctx, c.name, "pull", image); err != nil {
		return fmt.Errorf("%s pull %s: %w: %s", c.name, image, err, Truncate(strings.TrimSpace(string(stderr)), 2<<10))
	}
	return nil
}

func (c *cli) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	full := make([]string, 0, len(args)+5)
	full = append(full, "run", "--rm", "-i", "--network=none", image)
	full = append(full, args...)
	stderr, err := c.exec.Pipe(ctx, c.name, full, stdin, stdout)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return fmt.Errorf("%s run %s: %w: %s", c.name, image, err, Truncate(msg, 2<<10))
		}
		return fmt.Errorf("%s run %s: %w", c.name, image, err)
	}
	return nil
}

// DetectRuntime returns the first runtime that answers, trying the
// preferred one first.
func DetectRuntime(ctx context.Context, opts RuntimeOptions) (Runtime, error) {
	return detectRuntime(ctx, ExecRunner{}, opts)
}

func detectRuntime(ctx context.Context, exec Executor, opts RuntimeOptions) (Runtime, error) {
	order := []string{Docker, Podman}
	switch opts.Prefer {
	case "", Docker:
	case Podman:
		order = []string{Podman, Docker}
	default:
		return nil, fmt.Errorf("unknown container runtime %q: use %s or %s", opts.Prefer, Docker, Podman)
	}

	for _, name := range order {
		c, err := newCLI(name, exec, opts.Pull)
		if err != nil {
			return nil, err
		}
		if c.available(ctx) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: neither %s nor %s answered", ErrNoRuntime, Docker, Podman)
}
