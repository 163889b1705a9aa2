package supervisor

import (
	"fmt"
	"os"
	"strings"
)

// Candidate directories for the pipewire runtime pieces the worker loads at
// startup. Distributions disagree on the lib dir; first existing wins.
var (
	pipewireModuleDirs = []string{
		"/usr/lib/pipewire-0.3",
		"/usr/lib64/pipewire-0.3",
		"/lib/pipewire-0.3",
	}
	spaPluginDirs = []string{
		"/usr/lib/spa-0.2",
		"/usr/lib64/spa-0.2",
		"/lib/spa-0.2",
	}
)

// buildWorkerEnv returns the environment for the worker process: the current
// environment with XDG_RUNTIME_DIR, PIPEWIRE_MODULE_DIR and SPA_PLUGIN_DIR
// filled in when absent. Variables already set by the host are left alone.
func buildWorkerEnv() []string {
	env := os.Environ()

	if lookupEnv(env, "XDG_RUNTIME_DIR") == "" {
		env = append(env, fmt.Sprintf("XDG_RUNTIME_DIR=/run/user/%d", os.Getuid()))
	}
	if lookupEnv(env, "PIPEWIRE_MODULE_DIR") == "" {
		if dir := firstExistingDir(pipewireModuleDirs); dir != "" {
			env = append(env, "PIPEWIRE_MODULE_DIR="+dir)
		}
	}
	if lookupEnv(env, "SPA_PLUGIN_DIR") == "" {
		if dir := firstExistingDir(spaPluginDirs); dir != "" {
			env = append(env, "SPA_PLUGIN_DIR="+dir)
		}
	}

	return env
}

// lookupEnv scans back to front: for duplicate keys the last entry is the one
// the child process sees.
func lookupEnv(env []string, key string) string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return strings.TrimPrefix(env[i], prefix)
		}
	}
	return ""
}

func firstExistingDir(candidates []string) string {
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
