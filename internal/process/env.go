package process

import (
	"fmt"
	"os"

	"github.com/paulrobello/par-term-sub012/internal/data"
)

// EnvBuilder builds environment variables for script execution
type EnvBuilder struct {
	portAllocator *PortAllocator
}

// NewEnvBuilder creates a new environment builder
func NewEnvBuilder(ports *PortAllocator) *EnvBuilder {
	return &EnvBuilder{
		portAllocator: ports,
	}
}

// BuildEnv creates environment variables for a workspace
func (b *EnvBuilder) BuildEnv(ws *data.Workspace) []string {
	env := os.Environ()

	// Add workspace-specific variables
	env = append(env,
		fmt.Sprintf("PARTERM_SESSION_NAME=%s", ws.Name),
		fmt.Sprintf("PARTERM_SESSION_ROOT=%s", ws.Root),
		fmt.Sprintf("PARTERM_SESSION_BRANCH=%s", ws.Branch),
		fmt.Sprintf("ROOT_WORKSPACE_PATH=%s", ws.Repo),
	)

	// Add port allocation
	if b.portAllocator != nil {
		port, rangeEnd := b.portAllocator.PortRange(ws.Root)
		env = append(env,
			fmt.Sprintf("PARTERM_PORT=%d", port),
			fmt.Sprintf("PARTERM_PORT_RANGE=%d-%d", port, rangeEnd),
		)
	}

	// Add custom environment from the workspace
	for k, v := range ws.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return env
}

// BuildEnvMap creates a map of environment variables
func (b *EnvBuilder) BuildEnvMap(ws *data.Workspace) map[string]string {
	envMap := make(map[string]string)

	envMap["PARTERM_SESSION_NAME"] = ws.Name
	envMap["PARTERM_SESSION_ROOT"] = ws.Root
	envMap["PARTERM_SESSION_BRANCH"] = ws.Branch
	envMap["ROOT_WORKSPACE_PATH"] = ws.Repo

	if b.portAllocator != nil {
		port, rangeEnd := b.portAllocator.PortRange(ws.Root)
		envMap["PARTERM_PORT"] = fmt.Sprintf("%d", port)
		envMap["PARTERM_PORT_RANGE"] = fmt.Sprintf("%d-%d", port, rangeEnd)
	}

	for k, v := range ws.Env {
		envMap[k] = v
	}

	return envMap
}
